package draft

import "strings"

// fieldInfo describes one known content column of the plans table.
type fieldInfo struct {
	column  string
	label   string
	section string
}

// Section names used to group change records in the activity log.
const (
	SectionProjectDetails   = "Project Details"
	SectionCompanyInfo      = "Company Information"
	SectionScopeOfWork      = "Scope Of Work"
	SectionHazardManagement = "Hazard Management"
	SectionEmergency        = "Emergency Contacts"
	SectionTraining         = "Training Requirements"
	SectionSiteRules        = "Site Rules"
	SectionCommunication    = "Communication"
	SectionMonitoring       = "Monitoring Review"
	SectionGeneral          = "General"
)

// fieldCatalog is the authoritative table of content columns. Order matters:
// section classification falls back to the first prefix match in table order.
var fieldCatalog = []fieldInfo{
	{"title", "Project Name", SectionProjectDetails},
	{"site_address", "Site Address", SectionProjectDetails},
	{"client_name", "Client Name", SectionProjectDetails},
	{"principal_contractor", "Principal Contractor", SectionProjectDetails},
	{"start_date", "Start Date", SectionProjectDetails},
	{"end_date", "End Date", SectionProjectDetails},
	{"project_duration", "Project Duration", SectionProjectDetails},

	{"company_name", "Company Name", SectionCompanyInfo},
	{"company_address", "Company Address", SectionCompanyInfo},
	{"company_phone", "Company Phone", SectionCompanyInfo},
	{"contact_person", "Contact Person", SectionCompanyInfo},
	{"contact_email", "Contact Email", SectionCompanyInfo},
	{"contact_phone", "Contact Phone", SectionCompanyInfo},

	{"scope_of_work", "Scope Of Work", SectionScopeOfWork},
	{"equipment_used", "Equipment Used", SectionScopeOfWork},
	{"subcontractors", "Subcontractors", SectionScopeOfWork},
	{"high_risk_works", "High Risk Works", SectionScopeOfWork},

	{"hazards", "Identified Hazards", SectionHazardManagement},
	{"hazardous_substances", "Hazardous Substances", SectionHazardManagement},
	{"ppe_requirements", "PPE Requirements", SectionHazardManagement},
	{"risk_controls", "Risk Controls", SectionHazardManagement},

	{"emergency_contacts", "Emergency Contacts", SectionEmergency},
	{"emergency_procedures", "Emergency Procedures", SectionEmergency},
	{"nearest_hospital", "Nearest Hospital", SectionEmergency},
	{"first_aiders", "First Aiders", SectionEmergency},
	{"assembly_point", "Assembly Point", SectionEmergency},

	{"training_requirements", "Training Requirements", SectionTraining},
	{"inductions", "Site Inductions", SectionTraining},
	{"competencies", "Required Competencies", SectionTraining},
	{"licenses_required", "Licenses Required", SectionTraining},

	{"site_rules", "Site Rules", SectionSiteRules},
	{"visitor_rules", "Visitor Rules", SectionSiteRules},
	{"vehicle_rules", "Vehicle Rules", SectionSiteRules},
	{"alcohol_drug_policy", "Alcohol And Drug Policy", SectionSiteRules},

	{"communication_methods", "Communication Methods", SectionCommunication},
	{"toolbox_meetings", "Toolbox Meetings", SectionCommunication},
	{"reporting_procedures", "Reporting Procedures", SectionCommunication},
	{"notice_board_location", "Notice Board Location", SectionCommunication},

	{"review_schedule", "Review Schedule", SectionMonitoring},
	{"monitoring_procedures", "Monitoring Procedures", SectionMonitoring},
	{"last_reviewed", "Last Reviewed", SectionMonitoring},
	{"review_notes", "Review Notes", SectionMonitoring},
}

// fieldSynonyms maps the UI (display) spelling of dual-named fields to their
// storage (canonical) spelling. Entries mapping a key to itself mark fields
// with a single spelling and are no-ops during standardization.
var fieldSynonyms = map[string]string{
	"projectName":    "title",
	"projectAddress": "site_address",
	"clientName":     "client_name",
	"companyName":    "company_name",
	"scopeOfWork":    "scope_of_work",
	"hazardList":     "hazards",
	"emergencyInfo":  "emergency_procedures",
	"trainingInfo":   "training_requirements",
	"siteRules":      "site_rules",
	"reviewSchedule": "review_schedule",
	"start_date":     "start_date",
}

var (
	columnSet    map[string]struct{}
	labelByPath  map[string]string
	displayByCol map[string]string
)

func init() {
	columnSet = make(map[string]struct{}, len(fieldCatalog))
	labelByPath = make(map[string]string, len(fieldCatalog))
	for _, info := range fieldCatalog {
		columnSet[info.column] = struct{}{}
		labelByPath[info.column] = info.label
	}
	displayByCol = make(map[string]string, len(fieldSynonyms))
	for display, column := range fieldSynonyms {
		if display != column {
			displayByCol[column] = display
		}
	}
}

// ContentColumns returns the storage column names of every known content field.
func ContentColumns() []string {
	out := make([]string, 0, len(fieldCatalog))
	for _, info := range fieldCatalog {
		out = append(out, info.column)
	}
	return out
}

// IsContentColumn reports whether the key is a known storage column.
func IsContentColumn(key string) bool {
	_, ok := columnSet[key]
	return ok
}

// SectionFor classifies a field path into its document section. Exact matches
// win; otherwise the first catalog column the path starts with decides; paths
// with no match land in the General section.
func SectionFor(path string) string {
	for _, info := range fieldCatalog {
		if info.column == path {
			return info.section
		}
	}
	for _, info := range fieldCatalog {
		if strings.HasPrefix(path, info.column) {
			return info.section
		}
	}
	return SectionGeneral
}

// LabelFor resolves the human-facing display name for a field path: exact
// label-table match first, then the longest dotted prefix registered in the
// table, then a humanized rendering of the raw path.
func LabelFor(path string) string {
	if label, ok := labelByPath[path]; ok {
		return label
	}
	prefix := path
	for {
		idx := strings.LastIndex(prefix, ".")
		if idx < 0 {
			break
		}
		prefix = prefix[:idx]
		if label, ok := labelByPath[prefix]; ok {
			return label
		}
	}
	return humanize(path)
}

// humanize turns a raw field path into a title-cased label: underscores and
// dots become spaces, each word capitalized.
func humanize(path string) string {
	cleaned := strings.NewReplacer("_", " ", ".", " ").Replace(path)
	words := strings.Fields(cleaned)
	for i, word := range words {
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}
