package database

import (
	"fmt"

	"dedupserver/quality"
)

const defaultExportBatchSize = 500

// StoredDuplicate сохраненный дубликат вместе с группой, к которой он относится
type StoredDuplicate struct {
	ID        int    `json:"id"`
	GroupID   int    `json:"group_id"`
	GroupRank int    `json:"group_rank"`
	MasterUID string `json:"master_uid"`
	quality.DuplicateRecord
}

// StreamDuplicateRecords читает дубликаты запуска порциями и передает батчи в handler.
// Порядок: группы в порядке отчета, внутри группы порядок сохранения.
func (db *DB) StreamDuplicateRecords(runID int, batchSize int, handler func([]*StoredDuplicate) error) error {
	if handler == nil {
		return fmt.Errorf("handler is required")
	}
	if batchSize <= 0 {
		batchSize = defaultExportBatchSize
	}

	offset := 0
	for {
		batch, err := db.getDuplicateRecordsBatch(runID, offset, batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		if err := handler(batch); err != nil {
			return err
		}
		if len(batch) < batchSize {
			return nil
		}
		offset += len(batch)
	}
}

func (db *DB) getDuplicateRecordsBatch(runID, offset, limit int) ([]*StoredDuplicate, error) {
	rows, err := db.conn.Query(`
		SELECT r.id, r.group_id, g.group_rank, g.master_uid,
		       r.uid, r.excel_row,
		       COALESCE(r.customer_name, ''), COALESCE(r.address, ''), COALESCE(r.city, ''),
		       COALESCE(r.country, ''), COALESCE(r.tpi, ''),
		       r.name_score, r.address_score, r.city_score, r.country_score, r.tpi_score, r.overall_score,
		       r.is_low_confidence, COALESCE(r.block_type, ''), COALESCE(r.block_key, ''), COALESCE(r.match_method, '')
		FROM duplicate_records r
		JOIN duplicate_groups g ON g.id = r.group_id
		WHERE r.run_id = ?
		ORDER BY g.group_rank, r.id
		LIMIT ? OFFSET ?
	`, runID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query duplicate records: %w", err)
	}
	defer rows.Close()

	batch := make([]*StoredDuplicate, 0, limit)
	for rows.Next() {
		d := &StoredDuplicate{}
		if err := rows.Scan(
			&d.ID, &d.GroupID, &d.GroupRank, &d.MasterUID,
			&d.UID, &d.ExcelRow,
			&d.CustomerName, &d.Address, &d.City, &d.Country, &d.TPI,
			&d.NameScore, &d.AddressScore, &d.CityScore, &d.CountryScore, &d.TPIScore, &d.OverallScore,
			&d.IsLowConfidence, &d.BlockType, &d.BlockKey, &d.MatchMethod,
		); err != nil {
			return nil, fmt.Errorf("failed to scan duplicate record: %w", err)
		}
		batch = append(batch, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate duplicate records: %w", err)
	}
	return batch, nil
}
