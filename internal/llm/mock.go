package llm

import (
	"regexp"
	"strings"
)

var (
	mockArtifactRe     = regexp.MustCompile(`Generate a (.*?) for the following project`)
	mockNameRe         = regexp.MustCompile(`Project Name: (.*?)(\n|$)`)
	mockGoalRe         = regexp.MustCompile(`Project Goal: (.*?)(\n|$)`)
	mockStakeholdersRe = regexp.MustCompile(`(?s)Stakeholders:(.*?)(\n\n|$)`)
)

func firstGroup(re *regexp.Regexp, s, fallback string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return fallback
}

// MockResponse builds canned Markdown for trial mode from the rendered user
// prompt. Change management and communication plans get dedicated bodies.
func MockResponse(userPrompt string) string {
	artifact := firstGroup(mockArtifactRe, userPrompt, "OCM Artifact")
	name := firstGroup(mockNameRe, userPrompt, "Your Project")
	goal := firstGroup(mockGoalRe, userPrompt, "Implement organizational change")
	stakeholders := "- Leadership Team\n- Employees\n- Customers"
	if m := mockStakeholdersRe.FindStringSubmatch(userPrompt); m != nil {
		stakeholders = strings.TrimSpace(m[1])
	}

	body := mockGeneric
	switch {
	case strings.Contains(artifact, "Change Management Plan"):
		body = mockChangePlan
	case strings.Contains(artifact, "Communication Plan"):
		body = mockCommunicationPlan
	}
	return strings.NewReplacer(
		"{artifact}", artifact,
		"{name}", name,
		"{goal}", goal,
		"{stakeholders}", stakeholders,
	).Replace(body)
}

const mockChangePlan = `# Change Management Plan for {name}

## Executive Summary
This change management plan outlines the comprehensive approach for implementing {name}. The primary goal is to {goal} while ensuring minimal disruption to ongoing operations and maximizing stakeholder adoption.

## Project Context
{goal}

## Stakeholder Analysis
{stakeholders}

## Change Impact Assessment
The implementation of {name} will impact various aspects of the organization, including:

1. **Processes**: Existing workflows will need to be modified to accommodate the new system/approach
2. **People**: Staff will need training and support to adapt to the new ways of working
3. **Technology**: New tools and systems will be introduced, requiring technical adaptation
4. **Culture**: The organizational culture may need to evolve to support the new initiative

## Change Strategy
Based on the project context and stakeholders involved, we recommend a phased approach to implementing this change:

### Phase 1: Preparation (Weeks 1-4)
- Establish change management team and governance structure
- Conduct detailed stakeholder analysis and impact assessment
- Develop communication and training strategies
- Create resistance management plan

### Phase 2: Implementation (Weeks 5-12)
- Execute communication plan
- Deliver training programs
- Provide coaching and support
- Monitor adoption and address resistance

### Phase 3: Reinforcement (Weeks 13-20)
- Gather and analyze feedback
- Celebrate quick wins and successes
- Address gaps and resistance
- Adjust approach based on lessons learned

## Communication Strategy
| Stakeholder Group | Key Messages | Channels | Frequency |
|-------------------|--------------|----------|-----------|
| Leadership Team | Strategic importance, ROI, progress updates | Executive briefings, dashboard | Bi-weekly |
| Middle Management | Implementation details, team impact, support resources | Department meetings, email updates | Weekly |
| End Users | Benefits, training opportunities, support channels | Team meetings, intranet, email | Daily/Weekly |

## Training Plan
- **Instructor-led workshops**: For complex topics requiring discussion
- **E-learning modules**: For self-paced learning of basic concepts
- **Job aids and quick reference guides**: For on-the-job support
- **Peer coaching**: For ongoing reinforcement

## Resistance Management
Anticipated resistance points include:

1. Concern about job security
2. Discomfort with new processes/technology
3. Skepticism about benefits
4. Time constraints during transition

Strategies to address resistance:
- Transparent communication about the impact on roles
- Comprehensive training and support
- Early involvement of key influencers
- Celebration of early adopters and quick wins

## Success Metrics
- **Adoption rate**: Target 80% by end of Phase 2
- **Proficiency level**: Target 75% of users demonstrating competency by end of Phase 3
- **Stakeholder satisfaction**: Target 70% positive feedback
- **Business outcomes**: [Specific metrics related to project goals]

## Risk Management
| Risk | Likelihood | Impact | Mitigation Strategy |
|------|------------|--------|---------------------|
| Insufficient resources | Medium | High | Secure dedicated budget and staff |
| Competing priorities | High | Medium | Executive alignment and clear prioritization |
| Technical issues | Medium | High | Thorough testing and contingency planning |
| Stakeholder resistance | Medium | High | Early engagement and targeted interventions |

## Timeline and Milestones
[Detailed timeline with key milestones and dependencies]

## Roles and Responsibilities
[RACI matrix for change management activities]

## Appendices
- Detailed stakeholder analysis
- Communication plan
- Training curriculum
- Feedback collection tools`

const mockCommunicationPlan = `# Communication Plan for {name}

## Communication Objectives
- Ensure all stakeholders understand the why, what, and how of {name}
- Build awareness and desire for the change
- Address concerns proactively
- Provide regular updates on progress
- Celebrate successes and share lessons learned

## Key Messages
1. **Why we're making this change**: {goal}
2. **How it benefits the organization**: Improved efficiency, reduced costs, enhanced customer experience
3. **How it benefits individuals**: Streamlined workflows, better tools, professional development
4. **Timeline and what to expect**: Phased implementation with support at every stage

## Audience Segmentation
{stakeholders}

## Communication Channels
- Town halls and all-hands meetings
- Department/team meetings
- Email updates and newsletters
- Intranet/portal announcements
- One-on-one conversations
- Training sessions
- FAQ documents

## Communication Timeline

### Pre-Change Phase
| Timing | Audience | Message | Channel | Responsible |
|--------|----------|---------|---------|-------------|
| 12 weeks before | Executive team | Project overview, strategic alignment | Executive briefing | Project Sponsor |
| 10 weeks before | Department heads | Implementation approach, resource needs | Leadership meeting | Change Manager |
| 8 weeks before | All employees | Announcement of upcoming change | Town hall, email | Project Sponsor |

### Implementation Phase
| Timing | Audience | Message | Channel | Responsible |
|--------|----------|---------|---------|-------------|
| 6 weeks before | Directly impacted teams | Detailed changes, training plan | Team meetings | Department Heads |
| 4 weeks before | All employees | Progress update, support resources | Email, intranet | Change Manager |
| 2 weeks before | Directly impacted teams | Final preparations, day 1 instructions | Team meetings, email | Team Leads |
| Go-live | All employees | Launch announcement, support channels | All channels | Project Sponsor |

### Reinforcement Phase
| Timing | Audience | Message | Channel | Responsible |
|--------|----------|---------|---------|-------------|
| 1 week after | Directly impacted teams | Early wins, issue resolution | Team meetings | Team Leads |
| 1 month after | All employees | Benefits realized, next steps | Town hall | Project Sponsor |

## Feedback Mechanisms
- Surveys after key communications
- Focus groups with representative stakeholders
- Anonymous feedback channels
- Regular check-ins with team leads

## Success Metrics
- % of employees aware of the change (target: 95%)
- % of employees who can articulate the benefits (target: 80%)
- % of employees satisfied with communication (target: 75%)
- % of employees who know where to get support (target: 90%)

## Roles and Responsibilities
[RACI matrix for communication activities]`

const mockGeneric = `# {artifact} for {name}

## Executive Summary
This document provides a comprehensive framework for implementing {artifact} related to the {name} initiative. The primary goal is to {goal} while ensuring all stakeholders are properly engaged and supported throughout the process.

## Project Context
{goal}

## Stakeholder Analysis
{stakeholders}

## Strategic Approach
The implementation of {name} requires a structured approach to ensure successful adoption and realization of benefits. This document outlines the key components, timelines, and responsibilities necessary to achieve the desired outcomes.

## Key Components
1. **Assessment and Planning**: Thorough analysis of current state and detailed planning for future state
2. **Stakeholder Engagement**: Targeted strategies for involving and supporting different stakeholder groups
3. **Implementation Strategy**: Phased approach with clear milestones and success criteria
4. **Monitoring and Evaluation**: Continuous assessment of progress and outcomes
5. **Sustainability Plan**: Ensuring long-term adoption and benefit realization

## Detailed Implementation Plan
[Comprehensive section with specific details relevant to the artifact type]

## Timeline and Milestones
[Detailed timeline with key milestones and dependencies]

## Risk Management
[Thorough risk assessment and mitigation strategies]

## Success Metrics
[Specific, measurable indicators of success]

## Roles and Responsibilities
[Clear delineation of who does what]

## Appendices
- Detailed analysis documents
- Supporting templates and tools
- Reference materials`
