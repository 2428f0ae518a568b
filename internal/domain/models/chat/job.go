package chat

// Job is one structured job listing carried in assistant message metadata.
// The reconciliation logic treats it as opaque beyond present/absent.
type Job struct {
	JobTitle           string   `json:"job_title"`
	Company            string   `json:"company"`
	Location           string   `json:"location"`
	SourceURL          string   `json:"source_url"`
	WorkMode           string   `json:"work_mode,omitempty"`
	SalaryOrStipend    string   `json:"salary_or_stipend,omitempty"`
	ExperienceRequired string   `json:"experience_required,omitempty"`
	SkillsRequired     []string `json:"skills_required,omitempty"`
	Education          string   `json:"education,omitempty"`
	Eligibility        string   `json:"eligibility,omitempty"`
	Summary            string   `json:"summary,omitempty"`
	JobDescription     string   `json:"job_description,omitempty"`
	Responsibilities   []string `json:"responsibilities,omitempty"`
	Requirements       []string `json:"requirements,omitempty"`
}
