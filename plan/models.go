package plan

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Plan models the plans row. Content columns live in the embedded PlanContent
// so the record envelope (identity, scope, lifecycle, audit stamps) stays
// separate from the form body.
type Plan struct {
	bun.BaseModel `bun:"table:plans,alias:p"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	CompanyID uuid.UUID `bun:"company_id,type:uuid"`
	SiteID    uuid.UUID `bun:"site_id,type:uuid"`
	Status    string    `bun:"status"`
	Version   int       `bun:"version"`

	PlanContent

	CreatedAt time.Time `bun:"created_at"`
	CreatedBy uuid.UUID `bun:"created_by,type:uuid"`
	UpdatedAt time.Time `bun:"updated_at"`
	UpdatedBy uuid.UUID `bun:"updated_by,type:uuid"`
}

// PlanContent carries the form body of a safety plan, one column per known
// content field. The json tags match the storage (canonical) spelling so the
// struct converts losslessly to and from the field map the engine edits.
// Anything the form sends outside the known set lands in CustomFields.
type PlanContent struct {
	// Project details
	Title               string `bun:"title" json:"title,omitempty"`
	SiteAddress         string `bun:"site_address" json:"site_address,omitempty"`
	ClientName          string `bun:"client_name" json:"client_name,omitempty"`
	PrincipalContractor string `bun:"principal_contractor" json:"principal_contractor,omitempty"`
	StartDate           string `bun:"start_date" json:"start_date,omitempty"`
	EndDate             string `bun:"end_date" json:"end_date,omitempty"`
	ProjectDuration     string `bun:"project_duration" json:"project_duration,omitempty"`

	// Company information
	CompanyName    string `bun:"company_name" json:"company_name,omitempty"`
	CompanyAddress string `bun:"company_address" json:"company_address,omitempty"`
	CompanyPhone   string `bun:"company_phone" json:"company_phone,omitempty"`
	ContactPerson  string `bun:"contact_person" json:"contact_person,omitempty"`
	ContactEmail   string `bun:"contact_email" json:"contact_email,omitempty"`
	ContactPhone   string `bun:"contact_phone" json:"contact_phone,omitempty"`

	// Scope of work
	ScopeOfWork    string `bun:"scope_of_work" json:"scope_of_work,omitempty"`
	EquipmentUsed  []any  `bun:"equipment_used,type:jsonb" json:"equipment_used,omitempty"`
	Subcontractors []any  `bun:"subcontractors,type:jsonb" json:"subcontractors,omitempty"`
	HighRiskWorks  []any  `bun:"high_risk_works,type:jsonb" json:"high_risk_works,omitempty"`

	// Hazard management
	Hazards             []any `bun:"hazards,type:jsonb" json:"hazards,omitempty"`
	HazardousSubstances []any `bun:"hazardous_substances,type:jsonb" json:"hazardous_substances,omitempty"`
	PPERequirements     []any `bun:"ppe_requirements,type:jsonb" json:"ppe_requirements,omitempty"`
	RiskControls        []any `bun:"risk_controls,type:jsonb" json:"risk_controls,omitempty"`

	// Emergency contacts
	EmergencyContacts   []any  `bun:"emergency_contacts,type:jsonb" json:"emergency_contacts,omitempty"`
	EmergencyProcedures string `bun:"emergency_procedures" json:"emergency_procedures,omitempty"`
	NearestHospital     string `bun:"nearest_hospital" json:"nearest_hospital,omitempty"`
	FirstAiders         []any  `bun:"first_aiders,type:jsonb" json:"first_aiders,omitempty"`
	AssemblyPoint       string `bun:"assembly_point" json:"assembly_point,omitempty"`

	// Training requirements
	TrainingRequirements string `bun:"training_requirements" json:"training_requirements,omitempty"`
	Inductions           []any  `bun:"inductions,type:jsonb" json:"inductions,omitempty"`
	Competencies         []any  `bun:"competencies,type:jsonb" json:"competencies,omitempty"`
	LicensesRequired     []any  `bun:"licenses_required,type:jsonb" json:"licenses_required,omitempty"`

	// Site rules
	SiteRules         string `bun:"site_rules" json:"site_rules,omitempty"`
	VisitorRules      string `bun:"visitor_rules" json:"visitor_rules,omitempty"`
	VehicleRules      string `bun:"vehicle_rules" json:"vehicle_rules,omitempty"`
	AlcoholDrugPolicy string `bun:"alcohol_drug_policy" json:"alcohol_drug_policy,omitempty"`

	// Communication
	CommunicationMethods []any  `bun:"communication_methods,type:jsonb" json:"communication_methods,omitempty"`
	ToolboxMeetings      string `bun:"toolbox_meetings" json:"toolbox_meetings,omitempty"`
	ReportingProcedures  string `bun:"reporting_procedures" json:"reporting_procedures,omitempty"`
	NoticeBoardLocation  string `bun:"notice_board_location" json:"notice_board_location,omitempty"`

	// Monitoring and review
	ReviewSchedule       string `bun:"review_schedule" json:"review_schedule,omitempty"`
	MonitoringProcedures string `bun:"monitoring_procedures" json:"monitoring_procedures,omitempty"`
	LastReviewed         string `bun:"last_reviewed" json:"last_reviewed,omitempty"`
	ReviewNotes          string `bun:"review_notes" json:"review_notes,omitempty"`

	CustomFields map[string]any `bun:"custom_fields,type:jsonb" json:"-"`
}
