package models

import (
	"errors"
	"fmt"
	"time"
)

type BlockType string

const (
	BlockTypeWarmup  BlockType = "warmup"
	BlockTypeCardio  BlockType = "cardio"
	BlockTypeStretch BlockType = "stretch"
	BlockTypeOther   BlockType = "other"
)

func (t BlockType) Valid() bool {
	switch t {
	case BlockTypeWarmup, BlockTypeCardio, BlockTypeStretch, BlockTypeOther:
		return true
	default:
		return false
	}
}

// BlockPosition places a block before or after the exercise body.
type BlockPosition string

const (
	BlockPositionStart BlockPosition = "start"
	BlockPositionEnd   BlockPosition = "end"
)

func (p BlockPosition) Valid() bool {
	return p == BlockPositionStart || p == BlockPositionEnd
}

type Block struct {
	ID               int64         `json:"id"`
	PlanID           int64         `json:"plan_id"`
	Type             BlockType     `json:"type"`
	Position         BlockPosition `json:"position"`
	Ordinal          int           `json:"ordinal"`
	Config           BlockConfig   `json:"config"`
	EstimatedSeconds int           `json:"estimated_seconds"`
	Completed        bool          `json:"completed"`
	CompletedAt      *time.Time    `json:"completed_at,omitempty"`
	DeletedAt        *time.Time    `json:"deleted_at,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
}

func (b Block) Deleted() bool {
	return b.DeletedAt != nil
}

type OrganizedBlocks struct {
	Start   []Block      `json:"start"`
	End     []Block      `json:"end"`
	Summary BlockSummary `json:"summary"`
}

type BlockSummary struct {
	Count                 int               `json:"count"`
	Completed             int               `json:"completed"`
	TotalEstimatedSeconds int               `json:"total_estimated_seconds"`
	ByType                map[BlockType]int `json:"by_type"`
}

// BlockConfig is a tagged union keyed by the owning block's type. Exactly one
// variant is set and it must match that type.
type BlockConfig struct {
	Warmup  *WarmupConfig  `json:"warmup,omitempty"`
	Cardio  *CardioConfig  `json:"cardio,omitempty"`
	Stretch *StretchConfig `json:"stretch,omitempty"`
	Other   *OtherConfig   `json:"other,omitempty"`
}

type WarmupConfig struct {
	Activities []string `json:"activities,omitempty" yaml:"activities"`
	Intensity  string   `json:"intensity,omitempty" yaml:"intensity"`
}

type CardioConfig struct {
	Modality        string          `json:"modality" yaml:"modality"`
	DurationSeconds int             `json:"duration_seconds,omitempty" yaml:"duration_seconds"`
	DistanceMeters  *float64        `json:"distance_meters,omitempty" yaml:"distance_meters"`
	Intensity       string          `json:"intensity,omitempty" yaml:"intensity"`
	Intervals       *CardioInterval `json:"intervals,omitempty" yaml:"intervals"`
}

type CardioInterval struct {
	WorkSeconds int `json:"work_seconds" yaml:"work_seconds"`
	RestSeconds int `json:"rest_seconds" yaml:"rest_seconds"`
	Rounds      int `json:"rounds" yaml:"rounds"`
}

type StretchConfig struct {
	Stretches []StretchItem `json:"stretches" yaml:"stretches"`
}

type StretchItem struct {
	Name        string `json:"name" yaml:"name"`
	HoldSeconds int    `json:"hold_seconds" yaml:"hold_seconds"`
	Sides       int    `json:"sides,omitempty" yaml:"sides"`
}

type OtherConfig struct {
	Description string `json:"description,omitempty" yaml:"description"`
}

var ErrBlockConfigMismatch = errors.New("block config does not match block type")

func (c BlockConfig) variants() int {
	n := 0
	if c.Warmup != nil {
		n++
	}
	if c.Cardio != nil {
		n++
	}
	if c.Stretch != nil {
		n++
	}
	if c.Other != nil {
		n++
	}
	return n
}

// Normalize checks the payload against blockType. An empty config becomes the
// zero value of the matching variant.
func (c BlockConfig) Normalize(blockType BlockType) (BlockConfig, error) {
	if !blockType.Valid() {
		return BlockConfig{}, fmt.Errorf("%w: unknown type %q", ErrBlockConfigMismatch, blockType)
	}

	switch c.variants() {
	case 0:
		switch blockType {
		case BlockTypeWarmup:
			return BlockConfig{Warmup: &WarmupConfig{}}, nil
		case BlockTypeCardio:
			return BlockConfig{Cardio: &CardioConfig{}}, nil
		case BlockTypeStretch:
			return BlockConfig{Stretch: &StretchConfig{}}, nil
		default:
			return BlockConfig{Other: &OtherConfig{}}, nil
		}
	case 1:
	default:
		return BlockConfig{}, fmt.Errorf("%w: more than one variant set", ErrBlockConfigMismatch)
	}

	ok := (blockType == BlockTypeWarmup && c.Warmup != nil) ||
		(blockType == BlockTypeCardio && c.Cardio != nil) ||
		(blockType == BlockTypeStretch && c.Stretch != nil) ||
		(blockType == BlockTypeOther && c.Other != nil)
	if !ok {
		return BlockConfig{}, fmt.Errorf("%w: expected %s payload", ErrBlockConfigMismatch, blockType)
	}
	if c.Cardio != nil && c.Cardio.Intervals != nil {
		iv := c.Cardio.Intervals
		if iv.WorkSeconds < 0 || iv.RestSeconds < 0 || iv.Rounds < 0 {
			return BlockConfig{}, fmt.Errorf("%w: negative interval values", ErrBlockConfigMismatch)
		}
	}
	return c, nil
}

// EstimateSeconds derives a duration from the payload when the author did not
// give one.
func (c BlockConfig) EstimateSeconds() int {
	switch {
	case c.Cardio != nil:
		if c.Cardio.DurationSeconds > 0 {
			return c.Cardio.DurationSeconds
		}
		if iv := c.Cardio.Intervals; iv != nil {
			return iv.Rounds * (iv.WorkSeconds + iv.RestSeconds)
		}
	case c.Stretch != nil:
		total := 0
		for _, item := range c.Stretch.Stretches {
			sides := item.Sides
			if sides <= 0 {
				sides = 1
			}
			total += item.HoldSeconds * sides
		}
		return total
	}
	return 0
}
