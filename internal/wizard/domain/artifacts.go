package domain

const (
	ArtifactChangePlan             = "Organizational Change Plan"
	ArtifactCommunicationPlan      = "Communication Plan"
	ArtifactCommunicationTemplates = "Communication Message Templates"
	ArtifactStakeholderStrategy    = "Stakeholder Engagement Strategy"
	ArtifactFeedbackSurveys        = "Feedback Survey Templates"
)

// AllArtifacts is the generation order used for bundles.
var AllArtifacts = []string{
	ArtifactChangePlan,
	ArtifactCommunicationPlan,
	ArtifactCommunicationTemplates,
	ArtifactStakeholderStrategy,
	ArtifactFeedbackSurveys,
}

func IsKnownArtifact(name string) bool {
	for _, a := range AllArtifacts {
		if a == name {
			return true
		}
	}
	return false
}
