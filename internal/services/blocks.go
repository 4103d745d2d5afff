package services

import (
	"sort"

	"github.com/victor-vianna/fit-consult-hub-sub000/internal/models"
)

// OrganizeBlocks splits live blocks into their start and end partitions,
// each sorted by ordinal, and totals them for progress displays.
func OrganizeBlocks(blocks []models.Block) models.OrganizedBlocks {
	organized := models.OrganizedBlocks{
		Start: make([]models.Block, 0),
		End:   make([]models.Block, 0),
		Summary: models.BlockSummary{
			ByType: make(map[models.BlockType]int),
		},
	}

	for _, block := range blocks {
		if block.Deleted() {
			continue
		}
		switch block.Position {
		case models.BlockPositionStart:
			organized.Start = append(organized.Start, block)
		case models.BlockPositionEnd:
			organized.End = append(organized.End, block)
		default:
			continue
		}

		organized.Summary.Count++
		organized.Summary.TotalEstimatedSeconds += block.EstimatedSeconds
		organized.Summary.ByType[block.Type]++
		if block.Completed {
			organized.Summary.Completed++
		}
	}

	byOrdinal := func(list []models.Block) {
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].Ordinal == list[j].Ordinal {
				return list[i].ID < list[j].ID
			}
			return list[i].Ordinal < list[j].Ordinal
		})
	}
	byOrdinal(organized.Start)
	byOrdinal(organized.End)
	return organized
}

// estimatedSeconds prefers an explicit duration and falls back to the config.
func estimatedSeconds(explicit int, config models.BlockConfig) int {
	if explicit > 0 {
		return explicit
	}
	return config.EstimateSeconds()
}
