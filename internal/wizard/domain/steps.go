package domain

// Step is a wizard stage.
type Step string

const (
	StepHero              Step = "hero"
	StepAPIKey            Step = "api-key"
	StepProjectBasics     Step = "project-basics"
	StepStakeholders      Step = "stakeholders"
	StepBenefits          Step = "benefits"
	StepArtifactSelection Step = "artifact-selection"
	StepResults           Step = "results"
	StepRefinement        Step = "refinement"
)

var stepOrder = []Step{
	StepHero,
	StepAPIKey,
	StepProjectBasics,
	StepStakeholders,
	StepBenefits,
	StepArtifactSelection,
	StepResults,
	StepRefinement,
}

var previousStep = map[Step]Step{
	StepProjectBasics:     StepAPIKey,
	StepStakeholders:      StepProjectBasics,
	StepBenefits:          StepStakeholders,
	StepArtifactSelection: StepBenefits,
	StepResults:           StepArtifactSelection,
	StepRefinement:        StepResults,
}

// Index is the position of s in the wizard, or -1 for an unknown step.
func (s Step) Index() int {
	for i, st := range stepOrder {
		if st == s {
			return i
		}
	}
	return -1
}

func (s Step) Valid() bool {
	return s.Index() >= 0
}

// Previous returns the step the back action leads to.
func (s Step) Previous() (Step, bool) {
	p, ok := previousStep[s]
	return p, ok
}

// Reached reports whether a session sitting at s has already unlocked target.
func (s Step) Reached(target Step) bool {
	i, j := s.Index(), target.Index()
	return i >= 0 && j >= 0 && i >= j
}
