package quality

const (
	blockNamePrefixLength = 4
	blockKeySeparator     = "_"
)

// Block группа записей с одинаковым ключом блокирования.
// Пары сравниваются только внутри блока.
type Block struct {
	Key       string
	Positions []int
}

// BlockKey ключ блока: первые 4 символа нормализованного имени + "_" + первый символ города
func BlockKey(normalizedName, normalizedCity string) string {
	return runePrefix(normalizedName, blockNamePrefixLength) + blockKeySeparator + runePrefix(normalizedCity, 1)
}

func runePrefix(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// BuildBlocks разбивает записи на блоки. Каждая запись попадает ровно в один блок;
// блоки идут в порядке первого появления ключа, записи внутри блока в исходном порядке.
func BuildBlocks(records []Record) ([]Block, BlockStats) {
	blocks := make([]Block, 0)
	index := make(map[string]int)

	for _, record := range records {
		key := BlockKey(record.Normalized.CustomerName, record.Normalized.City)
		i, ok := index[key]
		if !ok {
			i = len(blocks)
			index[key] = i
			blocks = append(blocks, Block{Key: key})
		}
		blocks[i].Positions = append(blocks[i].Positions, record.Position)
	}

	return blocks, computeBlockStats(blocks)
}

func computeBlockStats(blocks []Block) BlockStats {
	stats := BlockStats{TotalBlocks: len(blocks)}
	for _, block := range blocks {
		size := len(block.Positions)
		stats.TotalRecordsBlocked += size
		stats.CandidatePairs += size * (size - 1) / 2
		if size > stats.MaxBlockSize {
			stats.MaxBlockSize = size
		}
		if size == 1 {
			stats.SingletonBlocks++
		}
	}
	if stats.TotalBlocks > 0 {
		stats.AvgBlockSize = float64(stats.TotalRecordsBlocked) / float64(stats.TotalBlocks)
	}
	return stats
}
