package testgen

// GenerateChecklist marks the identify and select stages, which test
// generation itself accomplishes, and syncs write_tests with the suites.
func GenerateChecklist(suites []TestSuite) Checklist {
	c := Checklist{IdentifyWhatToTest: true, SelectTestType: true}
	c.SyncWriteTests(suites)
	return c
}

// Summary counts test cases across suites.
type Summary struct {
	TotalSuites       int `json:"total_suites"`
	TotalTestCases    int `json:"total_test_cases"`
	HighPriorityTests int `json:"high_priority_tests"`
	AutomationReady   int `json:"automation_ready"`
}

// Artifacts is everything the generator hands to the report assembler.
type Artifacts struct {
	TestSuites []TestSuite `json:"test_suites"`
	QAProgress Checklist   `json:"qa_progress"`
	Summary    Summary     `json:"summary"`
}

// Export bundles suites and checklist with their summary counts.
func Export(suites []TestSuite, checklist Checklist) Artifacts {
	a := Artifacts{
		TestSuites: append([]TestSuite{}, suites...),
		QAProgress: checklist,
	}
	a.Summary.TotalSuites = len(suites)
	for _, s := range suites {
		a.Summary.TotalTestCases += len(s.TestCases)
		for _, tc := range s.TestCases {
			if tc.Priority == High {
				a.Summary.HighPriorityTests++
			}
			if tc.AutomationFeasible {
				a.Summary.AutomationReady++
			}
		}
	}
	return a
}

// AllCases flattens the suites' cases in suite order.
func (a Artifacts) AllCases() []TestCase {
	out := []TestCase{}
	for _, s := range a.TestSuites {
		out = append(out, s.TestCases...)
	}
	return out
}
