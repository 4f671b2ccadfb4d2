package ports

// Snapshot keys. Every local value lives under one of these fixed names.
const (
	KeyPresentationID  = "deckwright.presentationId"
	KeyAppState        = "deckwright.appState"
	KeyUsageEntries    = "deckwright.usage.entries"
	KeyUsagePricing    = "deckwright.usage.pricing"
	KeyAgentModels     = "deckwright.agentModels"
	KeyChatPanel       = "deckwright.chatPanel"
	KeyPresentationPfx = "deckwright.presentation."
	KeyUnsyncedPfx     = "deckwright.unsynced."
)

// PresentationKey returns the snapshot key of a presentation mirror.
func PresentationKey(id string) string {
	return KeyPresentationPfx + id
}

// UnsyncedKey returns the snapshot key marking a presentation whose latest
// local value has not reached the remote store.
func UnsyncedKey(id string) string {
	return KeyUnsyncedPfx + id
}
