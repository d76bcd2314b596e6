package models

// InstitutionCategory keys the per-session rate table.
type InstitutionCategory string

const (
	CategoryElementary InstitutionCategory = "ELEMENTARY"
	CategoryMiddle     InstitutionCategory = "MIDDLE"
	CategoryHigh       InstitutionCategory = "HIGH"
	CategorySpecial    InstitutionCategory = "SPECIAL"
	CategoryIsland     InstitutionCategory = "ISLAND"
	CategoryGeneral    InstitutionCategory = "GENERAL"
)

// FeePolicyMode selects when accrual counts.
type FeePolicyMode string

const (
	PolicyStatusBased     FeePolicyMode = "STATUS_BASED"
	PolicyAssignmentBased FeePolicyMode = "ASSIGNMENT_BASED"
)

// FeeRate holds per-session amounts (KRW) for the two roles.
type FeeRate struct {
	Main      int64 `json:"main"`
	Assistant int64 `json:"assistant"`
}

// FeePolicy is loaded once from configuration; it is not per-education state.
type FeePolicy struct {
	Mode      FeePolicyMode                   `json:"policy"`
	BaseRates map[InstitutionCategory]FeeRate `json:"baseRates"`
}

// DefaultFeeRates mirror the program's standard per-session rate table.
var DefaultFeeRates = map[InstitutionCategory]FeeRate{
	CategoryElementary: {Main: 40000, Assistant: 30000},
	CategoryMiddle:     {Main: 45000, Assistant: 32000},
	CategoryHigh:       {Main: 50000, Assistant: 35000},
	CategorySpecial:    {Main: 55000, Assistant: 38000},
	CategoryIsland:     {Main: 60000, Assistant: 40000},
	CategoryGeneral:    {Main: 40000, Assistant: 30000},
}

// FeeLine is the accrual for one lesson.
type FeeLine struct {
	Session        int   `json:"session"`
	MainCount      int   `json:"mainCount"`
	AssistantCount int   `json:"assistantCount"`
	Amount         int64 `json:"amount"`
}

// FeeBreakdown is the deterministic accrual estimate for one education.
type FeeBreakdown struct {
	EducationID string              `json:"educationId"`
	Category    InstitutionCategory `json:"category"`
	Mode        FeePolicyMode       `json:"policy"`
	Counted     bool                `json:"counted"`
	Lines       []FeeLine           `json:"lines"`
	Total       int64               `json:"total"`
}
