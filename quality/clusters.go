package quality

import "sort"

// AssembleClusters заполняет статистику групп и сортирует их по AvgSimilarity по убыванию.
// Порядок групп с равной оценкой сохраняется.
func AssembleClusters(masters []*MasterRecord) []*MasterRecord {
	for _, master := range masters {
		master.DuplicateCount = len(master.Duplicates)
		master.AvgSimilarity = 0
		master.IsLowConfidenceGroup = false

		if master.DuplicateCount == 0 {
			continue
		}

		sum := 0
		for _, duplicate := range master.Duplicates {
			sum += duplicate.OverallScore
			if duplicate.IsLowConfidence {
				master.IsLowConfidenceGroup = true
			}
		}
		master.AvgSimilarity = roundDiv(sum, master.DuplicateCount)
	}

	sort.SliceStable(masters, func(i, j int) bool {
		return masters[i].AvgSimilarity > masters[j].AvgSimilarity
	})

	return masters
}
