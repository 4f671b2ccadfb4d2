package domain

// AgentRole names one of the fixed agent roles of the orchestration service.
type AgentRole string

const (
	AgentClarifier     AgentRole = "clarifier"
	AgentOutline       AgentRole = "outline"
	AgentSlideWriter   AgentRole = "slideWriter"
	AgentCritic        AgentRole = "critic"
	AgentNotesPolisher AgentRole = "notesPolisher"
	AgentDesign        AgentRole = "design"
	AgentScriptWriter  AgentRole = "scriptWriter"
	AgentResearch      AgentRole = "research"
)

// AgentRoles lists every role in a stable order. The set is closed.
var AgentRoles = []AgentRole{
	AgentClarifier,
	AgentOutline,
	AgentSlideWriter,
	AgentCritic,
	AgentNotesPolisher,
	AgentDesign,
	AgentScriptWriter,
	AgentResearch,
}

// AgentModels binds every agent role to a model identifier.
// All eight keys are always present.
type AgentModels struct {
	Clarifier     string `json:"clarifier" mapstructure:"clarifier"`
	Outline       string `json:"outline" mapstructure:"outline"`
	SlideWriter   string `json:"slideWriter" mapstructure:"slideWriter"`
	Critic        string `json:"critic" mapstructure:"critic"`
	NotesPolisher string `json:"notesPolisher" mapstructure:"notesPolisher"`
	Design        string `json:"design" mapstructure:"design"`
	ScriptWriter  string `json:"scriptWriter" mapstructure:"scriptWriter"`
	Research      string `json:"research" mapstructure:"research"`
}

// DefaultAgentModels returns the hardcoded per-agent defaults.
func DefaultAgentModels() AgentModels {
	return AgentModels{
		Clarifier:     "gpt-4o-mini",
		Outline:       "gpt-4o-mini",
		SlideWriter:   "gpt-4o",
		Critic:        "gpt-4o-mini",
		NotesPolisher: "gpt-4o-mini",
		Design:        "gpt-image-1",
		ScriptWriter:  "gpt-4o",
		Research:      "gpt-4o-mini",
	}
}

// ModelFor returns the model bound to role, falling back to the default binding.
func (m AgentModels) ModelFor(role AgentRole) string {
	v := m.lookup(role)
	if v == "" {
		v = DefaultAgentModels().lookup(role)
	}
	return v
}

func (m AgentModels) lookup(role AgentRole) string {
	switch role {
	case AgentClarifier:
		return m.Clarifier
	case AgentOutline:
		return m.Outline
	case AgentSlideWriter:
		return m.SlideWriter
	case AgentCritic:
		return m.Critic
	case AgentNotesPolisher:
		return m.NotesPolisher
	case AgentDesign:
		return m.Design
	case AgentScriptWriter:
		return m.ScriptWriter
	case AgentResearch:
		return m.Research
	}
	return ""
}

// Set binds role to model. Unknown roles are ignored and reported as false.
func (m *AgentModels) Set(role AgentRole, model string) bool {
	switch role {
	case AgentClarifier:
		m.Clarifier = model
	case AgentOutline:
		m.Outline = model
	case AgentSlideWriter:
		m.SlideWriter = model
	case AgentCritic:
		m.Critic = model
	case AgentNotesPolisher:
		m.NotesPolisher = model
	case AgentDesign:
		m.Design = model
	case AgentScriptWriter:
		m.ScriptWriter = model
	case AgentResearch:
		m.Research = model
	default:
		return false
	}
	return true
}

// WithDefaults fills every empty binding from DefaultAgentModels.
func (m AgentModels) WithDefaults() AgentModels {
	for _, role := range AgentRoles {
		if m.lookup(role) == "" {
			m.Set(role, DefaultAgentModels().lookup(role))
		}
	}
	return m
}
