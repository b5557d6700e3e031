package request

// RegisterRequest is the request body for registering a signer
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// EnterRequest is the request body for entering a realm
type EnterRequest struct {
	Realm string `json:"realm"`
}

// PlaceBlockRequest is the request body for placing a block
type PlaceBlockRequest struct {
	BlockType string `json:"block_type"`
}

// AttackRequest is the request body for an attack
type AttackRequest struct {
	TargetType string `json:"target_type"`
	Damage     uint8  `json:"damage"`
}

// KillEntityRequest is the request body for killing an entity
type KillEntityRequest struct {
	EntityType  string `json:"entity_type"`
	ScoreReward uint64 `json:"score_reward"`
}
