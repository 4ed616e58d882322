package model

// IntentAction names an order sent back to the host.
type IntentAction string

const (
	IntentMove     IntentAction = "move"
	IntentHarvest  IntentAction = "harvest"
	IntentBuild    IntentAction = "build"
	IntentUpgrade  IntentAction = "upgradeController"
	IntentTransfer IntentAction = "transfer"
	IntentSpawn    IntentAction = "spawnCreep"
	IntentSay      IntentAction = "say"
)

// Intent is one accepted action. The host executes all intents at the end of
// the tick, so they never change the snapshot they were validated against.
type Intent struct {
	Unit      string       `json:"unit,omitempty"`
	Action    IntentAction `json:"action"`
	Target    string       `json:"target,omitempty"`
	Direction Direction    `json:"direction,omitempty"`
	Amount    int          `json:"amount,omitempty"`
	Body      []Part       `json:"body,omitempty"`
	Name      string       `json:"name,omitempty"`
	Message   string       `json:"message,omitempty"`
}
