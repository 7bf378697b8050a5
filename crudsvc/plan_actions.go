package crudsvc

import (
	"net/http"
	"strings"

	"github.com/fieldsafe/go-sssp/command"
	"github.com/fieldsafe/go-sssp/crudguard"
	"github.com/fieldsafe/go-sssp/pkg/types"
	"github.com/fieldsafe/go-sssp/plan"
	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-crud"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

type planTransitionPayload struct {
	PlanID uuid.UUID `json:"plan_id"`
	Target string    `json:"target"`
	Reason string    `json:"reason,omitempty"`
}

// PlanTransitionAction registers POST /plans/transition so clients can drive
// lifecycle changes explicitly instead of abusing PATCH.
func PlanTransitionAction(service *PlanService) crud.Action[*plan.Plan] {
	return crud.Action[*plan.Plan]{
		Name:   "transition",
		Method: http.MethodPost,
		Target: crud.ActionTargetCollection,
		Path:   "/plans/transition",
		Handler: func(ctx crud.ActionContext[*plan.Plan]) error {
			if service == nil || service.lifecycle == nil {
				return goerrors.New("plan lifecycle command missing", goerrors.CategoryInternal).WithCode(goerrors.CodeInternal)
			}
			var payload planTransitionPayload
			if err := ctx.BodyParser(&payload); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid transition payload").WithCode(goerrors.CodeBadRequest)
			}
			if payload.PlanID == uuid.Nil {
				return goerrors.New("plan_id is required", goerrors.CategoryValidation).WithCode(goerrors.CodeBadRequest)
			}
			res, err := service.guard.Enforce(crudguard.GuardInput{
				Context:   ctx,
				Operation: crud.OpUpdate,
				TargetID:  payload.PlanID,
			})
			if err != nil {
				return err
			}
			result := &types.PlanRecord{}
			err = service.lifecycle.Execute(ctx.UserContext(), command.PlanLifecycleTransitionInput{
				PlanID: payload.PlanID,
				Target: types.PlanStatus(strings.ToLower(strings.TrimSpace(payload.Target))),
				Actor:  res.Actor,
				Scope:  res.Scope,
				Reason: payload.Reason,
				Result: result,
			})
			if err != nil {
				return err
			}
			row, err := planRow(*result)
			if err != nil {
				return err
			}
			return ctx.Status(http.StatusOK).JSON(row)
		},
	}
}

type planInvitePayload struct {
	PlanID uuid.UUID `json:"plan_id"`
	Email  string    `json:"email"`
	Role   string    `json:"role,omitempty"`
}

// PlanInviteAction registers POST /plans/invite. The response carries the
// share link so the caller can surface it even when mail delivery lags.
func PlanInviteAction(guard GuardAdapter, invite gocommand.Commander[command.PlanInviteInput]) crud.Action[*plan.Plan] {
	return crud.Action[*plan.Plan]{
		Name:   "invite",
		Method: http.MethodPost,
		Target: crud.ActionTargetCollection,
		Path:   "/plans/invite",
		Handler: func(ctx crud.ActionContext[*plan.Plan]) error {
			if invite == nil {
				return goerrors.New("plan invite command missing", goerrors.CategoryInternal).WithCode(goerrors.CodeInternal)
			}
			var payload planInvitePayload
			if err := ctx.BodyParser(&payload); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid invite payload").WithCode(goerrors.CodeBadRequest)
			}
			res, err := guard.Enforce(crudguard.GuardInput{
				Context:   ctx,
				Operation: crud.OpCreate,
				TargetID:  payload.PlanID,
			})
			if err != nil {
				return err
			}
			result := &command.PlanInviteResult{}
			err = invite.Execute(ctx.UserContext(), command.PlanInviteInput{
				PlanID: payload.PlanID,
				Email:  payload.Email,
				Role:   types.ShareRole(strings.ToLower(strings.TrimSpace(payload.Role))),
				Actor:  res.Actor,
				Scope:  res.Scope,
				Result: result,
			})
			if err != nil {
				return err
			}
			return ctx.Status(http.StatusCreated).JSON(result)
		},
	}
}

type planInviteAcceptPayload struct {
	Token  string    `json:"token,omitempty"`
	JTI    string    `json:"jti,omitempty"`
	UserID uuid.UUID `json:"user_id"`
}

// PlanInviteAcceptAction registers POST /plans/invite/accept. The token itself
// is the credential, so the route skips the scope guard.
func PlanInviteAcceptAction(accept gocommand.Commander[command.PlanInviteAcceptInput]) crud.Action[*plan.Plan] {
	return crud.Action[*plan.Plan]{
		Name:   "invite-accept",
		Method: http.MethodPost,
		Target: crud.ActionTargetCollection,
		Path:   "/plans/invite/accept",
		Handler: func(ctx crud.ActionContext[*plan.Plan]) error {
			if accept == nil {
				return goerrors.New("plan invite accept command missing", goerrors.CategoryInternal).WithCode(goerrors.CodeInternal)
			}
			var payload planInviteAcceptPayload
			if err := ctx.BodyParser(&payload); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid invite accept payload").WithCode(goerrors.CodeBadRequest)
			}
			result := &types.ShareGrant{}
			err := accept.Execute(ctx.UserContext(), command.PlanInviteAcceptInput{
				Token:  payload.Token,
				JTI:    payload.JTI,
				UserID: payload.UserID,
				Result: result,
			})
			if err != nil {
				return err
			}
			return ctx.Status(http.StatusOK).JSON(result)
		},
	}
}

type planExportPayload struct {
	PlanID uuid.UUID `json:"plan_id"`
}

// PlanExportAction registers POST /plans/export and returns the rendered
// document location.
func PlanExportAction(guard GuardAdapter, export gocommand.Commander[command.PlanExportInput]) crud.Action[*plan.Plan] {
	return crud.Action[*plan.Plan]{
		Name:   "export",
		Method: http.MethodPost,
		Target: crud.ActionTargetCollection,
		Path:   "/plans/export",
		Handler: func(ctx crud.ActionContext[*plan.Plan]) error {
			if export == nil {
				return goerrors.New("plan export command missing", goerrors.CategoryInternal).WithCode(goerrors.CodeInternal)
			}
			var payload planExportPayload
			if err := ctx.BodyParser(&payload); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid export payload").WithCode(goerrors.CodeBadRequest)
			}
			if payload.PlanID == uuid.Nil {
				return goerrors.New("plan_id is required", goerrors.CategoryValidation).WithCode(goerrors.CodeBadRequest)
			}
			res, err := guard.Enforce(crudguard.GuardInput{
				Context:   ctx,
				Operation: crud.OpRead,
				TargetID:  payload.PlanID,
			})
			if err != nil {
				return err
			}
			result := &types.ExportResult{}
			err = export.Execute(ctx.UserContext(), command.PlanExportInput{
				PlanID: payload.PlanID,
				Actor:  res.Actor,
				Scope:  res.Scope,
				Result: result,
			})
			if err != nil {
				return err
			}
			return ctx.Status(http.StatusOK).JSON(result)
		},
	}
}
