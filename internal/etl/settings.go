package etl

import (
	"context"
	"database/sql"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Mousaahmad63636/DataSyncService/pkg/models"
	"github.com/Mousaahmad63636/DataSyncService/pkg/utils"
)

// SettingExtractor replicates the BusinessSettings table. The table is small,
// so the engine registers it unbatched; the LastModified filter still keeps
// steady-state passes cheap. Settings have no soft-delete marker: a row is
// live until it disappears from the table.
type SettingExtractor struct {
	DB  *sql.DB
	Log *logrus.Entry
}

func NewSettingExtractor(db *sql.DB, log *logrus.Entry) *SettingExtractor {
	return &SettingExtractor{DB: db, Log: log}
}

func (e *SettingExtractor) Entity() string { return CollBusinessSettings }

func (e *SettingExtractor) ChangedPage(ctx context.Context, cur Cursor, limit int) (Page, error) {
	const q = `
SELECT TOP (@p1)
       Id, [Key], [Value], Description, [Group], DataType, IsSystem, LastModified, ModifiedBy
FROM BusinessSettings
WHERE LastModified > @p2 OR (LastModified = @p2 AND Id > @p3)
ORDER BY LastModified, Id`

	rows, err := e.DB.QueryContext(ctx, q, limit, cur.Since, cur.AfterID)
	if err != nil {
		return Page{}, pageError(CollBusinessSettings, err)
	}
	defer rows.Close()

	page := Page{Next: cur}
	scanned := 0
	for rows.Next() {
		scanned++
		var (
			id                        int64
			key, value, description   sql.NullString
			group, dataType, modifier sql.NullString
			isSystem                  bool
			lastModified              sql.NullTime
		)
		if err := rows.Scan(&id, &key, &value, &description, &group, &dataType,
			&isSystem, &lastModified, &modifier); err != nil {
			e.Log.Errorf("skipping malformed business setting row: %v", err)
			page.Skipped++
			continue
		}

		modified := utils.TimeUTC(lastModified, time.Time{})
		page.Next = Cursor{Since: modified, AfterID: id}
		page.Docs = append(page.Docs, &models.BusinessSettingDoc{
			ID:           id,
			SettingID:    id,
			Key:          utils.Str(key),
			Value:        utils.Str(value),
			Description:  utils.Str(description),
			Group:        utils.Str(group),
			DataType:     utils.Str(dataType),
			IsSystem:     isSystem,
			LastModified: modified,
			ModifiedBy:   utils.Str(modifier),
		})
	}
	if err := rows.Err(); err != nil {
		return Page{}, pageError(CollBusinessSettings, err)
	}
	page.HasMore = scanned == limit
	return page, nil
}

func (e *SettingExtractor) LiveIDs(ctx context.Context) (map[int64]struct{}, error) {
	return queryIDSet(ctx, e.DB, `SELECT Id FROM BusinessSettings`)
}
