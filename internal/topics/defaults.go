package topics

// DefaultTree is the built-in study map used when no topic directory is
// configured.
func DefaultTree() *Tree {
	return NewTree([]Branch{practicalDataScience, crispML})
}

var practicalDataScience = Branch{
	ID:          "practical-data-science",
	Title:       "PRACTICAL DATA SCIENCE",
	Description: "Note: For Artificial Intelligence & Deep Learning We Have a Separate Mindmap",
	Subbranches: []Branch{
		{ID: "probability", Title: "Probability"},
		{ID: "probability-distributions", Title: "Probability Distributions"},
		{ID: "inferential-statistics", Title: "Inferential Statistics"},
		{ID: "mathematical-foundations", Title: "Mathematical Foundations"},
	},
}

var crispML = Branch{
	ID:          "crisp-ml",
	Title:       "CRISP-ML(Q)",
	Description: "Cross Industry Standard Process for Machine Learning with Quality Assurance",
	Subbranches: []Branch{
		{
			ID:    "business-understanding",
			Title: "1a. Business Understanding",
			Subbranches: []Branch{
				{ID: "identify-business-selection", Title: "a. Identify Business Selection"},
				{ID: "identify-high-level-selection", Title: "b. Identify High Level Selection"},
				{ID: "record-business-objective", Title: "c. Record Business Objective"},
				{ID: "record-business-constraint", Title: "d. Record Business Constraint"},
				{
					ID:    "success-criteria",
					Title: "Success Criteria",
					Subbranches: []Branch{
						{ID: "business-success-criteria", Title: "Business Success Criteria"},
						{ID: "ml-success-criteria", Title: "ML Success Criteria"},
						{ID: "economic-success-criteria", Title: "Economic Success Criteria"},
					},
				},
				{
					ID:          "project-charter",
					Title:       "Project Charter",
					Description: "This is the first document, which gets prepared on any project",
					Subbranches: []Branch{
						{ID: "high-level-details", Title: "This contains details at a high level"},
						{ID: "project-sponsor", Title: "This document is signed by Project Sponsor"},
					},
				},
			},
		},
		{ID: "data-understanding", Title: "1b. Data Understanding"},
		{ID: "data-preparation", Title: "2. Data Preparation"},
		{ID: "model-building", Title: "3. Model Building"},
		{ID: "evaluation", Title: "4. Evaluation"},
		{ID: "model-deployment", Title: "5. Model Deployment"},
		{ID: "monitoring-maintenance", Title: "6. Monitoring & Maintenance"},
	},
}
