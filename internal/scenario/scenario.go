// internal/scenario/scenario.go
package scenario

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Op is one scripted instruction.
type Op string

const (
	OpPremarket    Op = "premarket"
	OpEndPremarket Op = "end_premarket"
	OpBuy          Op = "buy"
	OpHatch        Op = "hatch"
	OpSell         Op = "sell"
	OpRegister     Op = "register"
	OpSetMarket    Op = "set_market"
	OpTestnetBonus Op = "testnet_bonus"
	OpSetGuards    Op = "set_program_guards"
	OpCollection   Op = "set_collection"
	OpSetMinter    Op = "set_minter"
	OpMintNft      Op = "mint_nft"
	OpAdminMint    Op = "admin_mint"
	OpWithdraw     Op = "withdraw"
	OpDevWithdraw  Op = "dev_withdraw"
	OpWait         Op = "wait"
)

// AuthorityActor names the game authority in a script.
const AuthorityActor = "authority"

// DevActors are the three dev wallets every scenario initializes with.
var DevActors = [3]string{"dev1", "dev2", "dev3"}

// Step is one line of a scenario file.
type Step struct {
	Op       Op            `yaml:"op"`
	Actor    string        `yaml:"actor"`
	Amount   string        `yaml:"amount"` // SOL
	Referrer string        `yaml:"referrer"`
	Username string        `yaml:"username"`
	Market   string        `yaml:"market"` // eggs, or "threshold"
	Target   string        `yaml:"target"`
	Max      uint8         `yaml:"max_instructions"`
	Wait     time.Duration `yaml:"wait"`
	// Expect names the error the step must fail with, e.g. game_over.
	Expect string `yaml:"expect"`
}

// Scenario is a scripted game.
type Scenario struct {
	Name      string        `yaml:"name"`
	Start     int64         `yaml:"start"`
	Premarket time.Duration `yaml:"premarket"`
	Cooldown  uint64        `yaml:"cooldown"`
	TestMode  bool          `yaml:"test_mode"`
	Steps     []Step        `yaml:"steps"`
}

var knownOps = map[Op]bool{
	OpPremarket: true, OpEndPremarket: true, OpBuy: true, OpHatch: true, OpSell: true,
	OpRegister: true, OpSetMarket: true, OpTestnetBonus: true, OpSetGuards: true,
	OpCollection: true, OpSetMinter: true, OpMintNft: true, OpAdminMint: true,
	OpWithdraw: true, OpDevWithdraw: true, OpWait: true,
}

// Load reads a scenario from a YAML file.
func Load(path string, logger *zap.Logger) (*Scenario, error) {
	if filepath.IsAbs(path) {
		logger.Debug("Using absolute path for scenario file", zap.String("path", path))
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if len(s.Steps) == 0 {
		return nil, fmt.Errorf("no steps found in scenario")
	}
	if s.Start == 0 {
		s.Start = 1_700_000_000
	}
	if s.Premarket <= 0 {
		s.Premarket = time.Hour
	}
	for i := range s.Steps {
		st := &s.Steps[i]
		st.Op = Op(strings.ToLower(strings.TrimSpace(string(st.Op))))
		if !knownOps[st.Op] {
			return nil, fmt.Errorf("step %d: unsupported op %q", i+1, st.Op)
		}
		if st.Expect != "" {
			if _, ok := errorNames[st.Expect]; !ok {
				return nil, fmt.Errorf("step %d: unknown expected error %q", i+1, st.Expect)
			}
		}
		if st.Op == OpWait && st.Wait <= 0 {
			return nil, fmt.Errorf("step %d: wait needs a positive duration", i+1)
		}
	}
	return &s, nil
}

// Key derives the deterministic wallet of a named actor.
func Key(name string) solana.PublicKey {
	sum := sha256.Sum256([]byte("shrimp-scenario/" + name))
	return solana.PublicKeyFromBytes(sum[:])
}
