package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case AuthResult:
		o.printAuthResult(v)
	case Me:
		o.printMe(v)
	case Profile:
		o.printProfile(v)
	case Session:
		o.printSession(v)
	case CredentialResult:
		o.printCredentialResult(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Signer response type (matches API)
type Signer struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Owner    string `json:"owner"`
}

// AuthResult combines signer and token
type AuthResult struct {
	Signer       Signer    `json:"signer"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Me response type
type Me struct {
	Signer     string      `json:"signer"`
	Username   string      `json:"username,omitempty"`
	Owner      string      `json:"owner,omitempty"`
	Credential *Credential `json:"credential,omitempty"`
}

// Profile response type
type Profile struct {
	Owner             string    `json:"owner"`
	Address           string    `json:"address"`
	TotalBlocksPlaced uint64    `json:"total_blocks_placed"`
	TotalAttacks      uint64    `json:"total_attacks"`
	TotalKills        uint64    `json:"total_kills"`
	TotalScore        uint64    `json:"total_score"`
	GamesPlayed       uint16    `json:"games_played"`
	SettledEpoch      uint64    `json:"settled_epoch"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Session response type
type Session struct {
	Owner        string    `json:"owner"`
	Address      string    `json:"address"`
	Realm        string    `json:"realm"`
	State        string    `json:"state"`
	Active       bool      `json:"active"`
	BlocksPlaced uint32    `json:"blocks_placed"`
	Attacks      uint32    `json:"attacks"`
	Kills        uint32    `json:"kills"`
	Score        uint64    `json:"score"`
	Epoch        uint64    `json:"epoch"`
	Custody      string    `json:"custody"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Credential response type
type Credential struct {
	ID        string    `json:"id"`
	Owner     string    `json:"owner"`
	Signer    string    `json:"signer"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CredentialResult is the issued credential and its bearer token
type CredentialResult struct {
	Token      string     `json:"token"`
	Credential Credential `json:"credential"`
}

// HealthResult response type
type HealthResult struct {
	Status    string `json:"status"`
	Server    string `json:"server,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

func (o *Output) printAuthResult(a AuthResult) {
	fmt.Printf("Signer: %s (%s)\n", a.Signer.Username, a.Signer.ID)
	fmt.Printf("Owner: %s\n", a.Signer.Owner)
	fmt.Printf("Token saved (expires %s)\n", a.ExpiresAt.Format(time.RFC3339))
}

func (o *Output) printMe(m Me) {
	fmt.Printf("Signer: %s\n", m.Signer)
	if m.Username != "" {
		fmt.Printf("Username: %s\n", m.Username)
	}
	fmt.Printf("Owner: %s\n", m.Owner)
	if m.Credential != nil {
		fmt.Printf("Acting via credential %s (expires %s)\n",
			m.Credential.ID, m.Credential.ExpiresAt.Format(time.RFC3339))
	}
}

func (o *Output) printProfile(p Profile) {
	fmt.Printf("Profile: %s\n", p.Owner)
	fmt.Printf("Address: %s\n", p.Address)
	fmt.Printf("Games played: %d\n", p.GamesPlayed)
	fmt.Printf("Total score: %d\n", p.TotalScore)
	fmt.Printf("Blocks: %d  Attacks: %d  Kills: %d\n", p.TotalBlocksPlaced, p.TotalAttacks, p.TotalKills)
	if p.SettledEpoch > 0 {
		fmt.Printf("Last settled epoch: %d\n", p.SettledEpoch)
	}
}

func (o *Output) printSession(s Session) {
	fmt.Printf("Session: %s [%s, %s]\n", s.Owner, s.State, s.Custody)
	if s.Realm != "" {
		fmt.Printf("Realm: %s (epoch %d)\n", s.Realm, s.Epoch)
	}
	fmt.Printf("Score: %d\n", s.Score)
	fmt.Printf("Blocks: %d  Attacks: %d  Kills: %d\n", s.BlocksPlaced, s.Attacks, s.Kills)
}

func (o *Output) printCredentialResult(c CredentialResult) {
	fmt.Printf("Credential %s for %s\n", c.Credential.ID, c.Credential.Owner)
	fmt.Printf("Session signer: %s\n", c.Credential.Signer)
	fmt.Printf("Expires: %s\n", c.Credential.ExpiresAt.Format(time.RFC3339))
	fmt.Printf("\nUse with --key %s\n", c.Token)
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s (%s, %dms)\n", h.Status, h.Server, h.LatencyMS)
}
