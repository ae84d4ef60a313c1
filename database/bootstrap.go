// database/bootstrap.go
package database

import (
	"database/sql"
	"fmt"
	"sort"
	"strings"

	sqlite "github.com/glebarez/sqlite" // CGO-free driver
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Thiagofreitashalogen/halokm-sub000/entities"
)

// Open connects to a SQLite DSN without migrating.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// one writer at a time; concurrent sqlite writers fail with SQLITE_BUSY
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// OpenSQLite opens the database file and brings the schema up to date.
func OpenSQLite(path string, log *zap.Logger) (*gorm.DB, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db, log); err != nil {
		return nil, err
	}
	return db, nil
}

// OpenMemory opens a named shared-cache in-memory database and migrates it.
// Each name is an independent database.
func OpenMemory(name string, log *zap.Logger) (*gorm.DB, error) {
	name = strings.NewReplacer("/", "_", " ", "_").Replace(name)
	db, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		return nil, err
	}
	if err := Migrate(db, log); err != nil {
		return nil, err
	}
	return db, nil
}

// Models lists every table the service owns.
func Models() []any {
	models := []any{
		&entities.KnowledgeEntry{},
		&entities.Document{},
		&entities.EntryChunk{},
		&entities.TenderAnalysis{},
		&entities.Draft{},
		&entities.DraftVersion{},
	}
	return append(models, entities.LinkModels()...)
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	// Run the link-table rebuild BEFORE AutoMigrate so GORM doesn't try to
	// add a primary key to a table that has duplicate rows.
	for _, m := range entities.LinkModels() {
		rebuilt, err := migrateLinkTableAddPK(db, m)
		if err != nil {
			return fmt.Errorf("migrate link table: %w", err)
		}
		if rebuilt != "" {
			log.Info("rebuilt link table with composite key", zap.String("table", rebuilt))
		}
	}
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

type colInfo struct {
	Cid       int
	Name      string
	Type      string
	NotNull   int
	DfltValue sql.NullString
	Pk        int
}

// migrateLinkTableAddPK rebuilds a link table created by older versions
// (surrogate id key, duplicate pairs allowed) into the composite-key layout.
// It returns the table name when a rebuild happened.
func migrateLinkTableAddPK(db *gorm.DB, model any) (string, error) {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return "", err
	}
	table := stmt.Schema.Table
	keys := append([]string(nil), stmt.Schema.PrimaryFieldDBNames...)
	sort.Strings(keys)

	var tbl string
	if err := db.Raw(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&tbl).Error; err != nil {
		return "", fmt.Errorf("check table exist: %w", err)
	}
	if tbl == "" {
		// fresh DB, nothing to do
		return "", nil
	}

	var cols []colInfo
	if err := db.Raw(fmt.Sprintf(`PRAGMA table_info(%q)`, table)).Scan(&cols).Error; err != nil {
		return "", fmt.Errorf("table_info: %w", err)
	}
	var pks []string
	oldCols := map[string]bool{}
	for _, c := range cols {
		name := strings.ToLower(c.Name)
		oldCols[name] = true
		if c.Pk > 0 {
			pks = append(pks, name)
		}
	}
	sort.Strings(pks)
	if strings.Join(pks, ",") == strings.Join(keys, ",") {
		return "", nil
	}
	for _, k := range keys {
		if !oldCols[k] {
			return "", fmt.Errorf("table %s lacks column %s", table, k)
		}
	}
	created := "CURRENT_TIMESTAMP"
	if oldCols["created_at"] {
		created = "MIN(created_at)"
	}

	var indexes []string
	if err := db.Raw(`SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=? AND sql IS NOT NULL`, table).
		Scan(&indexes).Error; err != nil {
		return "", fmt.Errorf("list indexes: %w", err)
	}

	legacy := table + "_legacy"
	return table, db.Transaction(func(tx *gorm.DB) error {
		// index names would collide with the ones CreateTable adds
		for _, ix := range indexes {
			if err := tx.Exec(fmt.Sprintf(`DROP INDEX %q`, ix)).Error; err != nil {
				return err
			}
		}
		if err := tx.Exec(fmt.Sprintf(`ALTER TABLE %q RENAME TO %q`, table, legacy)).Error; err != nil {
			return err
		}
		if err := tx.Migrator().CreateTable(model); err != nil {
			return err
		}
		cols := strings.Join(keys, ", ")
		copySQL := fmt.Sprintf(`INSERT OR IGNORE INTO %q (%s, created_at) SELECT %s, %s FROM %q GROUP BY %s`,
			table, cols, cols, created, legacy, cols)
		if err := tx.Exec(copySQL).Error; err != nil {
			return err
		}
		return tx.Exec(fmt.Sprintf(`DROP TABLE %q`, legacy)).Error
	})
}
