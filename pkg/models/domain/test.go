package domain

type TestStatus string

const (
	TestNotRun TestStatus = "NOT_RUN"
	TestPass   TestStatus = "PASS"
	TestFail   TestStatus = "FAIL"
	TestWarn   TestStatus = "WARN"
	TestSkip   TestStatus = "SKIP"
	TestManual TestStatus = "MANUAL"
)

// Terminal reports whether the status is a final outcome.
func (s TestStatus) Terminal() bool {
	switch s {
	case TestPass, TestFail, TestWarn, TestSkip, TestManual:
		return true
	default:
		return false
	}
}

type TestResult struct {
	ID     string
	Name   string
	Status TestStatus
	Detail string
}
