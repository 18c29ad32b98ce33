package hfacs

// Taxonomy is the HFACS reference tree.
type Taxonomy struct {
	Framework string  `json:"framework"`
	Levels    []Level `json:"levels"`
}

// Level is one of the four HFACS tiers.
type Level struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Categories  []Category `json:"categories"`
}

// Category groups related sub-categories within a level.
type Category struct {
	Name          string   `json:"name"`
	SubCategories []string `json:"sub_categories"`
}

// Level names.
const (
	LevelUnsafeActs      = "Unsafe Acts of Operators"
	LevelPreconditions   = "Preconditions for Unsafe Acts"
	LevelSupervision     = "Unsafe Supervision"
	LevelOrganizational  = "Organizational Influences"
	frameworkDescription = "Human Factors Analysis and Classification System"
)

// Reference returns the taxonomy. Each call returns a fresh copy.
func Reference() Taxonomy {
	return Taxonomy{
		Framework: frameworkDescription,
		Levels: []Level{
			{
				Name:        LevelUnsafeActs,
				Description: "Errors and violations committed by front-line personnel.",
				Categories: []Category{
					{Name: "Errors", SubCategories: []string{"Skill-Based Errors", "Decision Errors", "Perceptual Errors"}},
					{Name: "Violations", SubCategories: []string{"Routine Violations", "Exceptional Violations"}},
				},
			},
			{
				Name:        LevelPreconditions,
				Description: "Latent conditions in the operator or environment.",
				Categories: []Category{
					{Name: "Environmental Factors", SubCategories: []string{"Physical Environment", "Technological Environment"}},
					{Name: "Condition of Operators", SubCategories: []string{"Adverse Mental States", "Adverse Physiological States", "Physical/Mental Limitations"}},
					{Name: "Personnel Factors", SubCategories: []string{"Crew Resource Management Issues", "Personal Readiness"}},
				},
			},
			{
				Name:        LevelSupervision,
				Description: "Failures by direct supervisors.",
				Categories: []Category{
					{Name: "Inadequate Supervision", SubCategories: []string{}},
					{Name: "Planned Inappropriate Operations", SubCategories: []string{}},
					{Name: "Failure to Correct Known Problem", SubCategories: []string{}},
					{Name: "Supervisory Violations", SubCategories: []string{}},
				},
			},
			{
				Name:        LevelOrganizational,
				Description: "High-level systemic failures.",
				Categories: []Category{
					{Name: "Resource Management", SubCategories: []string{}},
					{Name: "Organizational Climate", SubCategories: []string{}},
					{Name: "Operational Process", SubCategories: []string{}},
				},
			},
		},
	}
}
