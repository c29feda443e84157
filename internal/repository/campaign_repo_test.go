package repository

import (
	"context"
	"strings"
	"testing"

	"github.com/seralp/mailcast/internal/domain"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newDryRunDB opens a gorm handle that builds SQL without touching a server,
// capturing every generated query for assertions.
func newDryRunDB(t *testing.T) (*gorm.DB, *[]string) {
	t.Helper()

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  "host=localhost user=test dbname=test",
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	if err != nil {
		t.Fatalf("gorm.Open() error = %v", err)
	}

	queries := &[]string{}
	err = db.Callback().Query().After("gorm:query").Register("capture_sql", func(tx *gorm.DB) {
		*queries = append(*queries, tx.Statement.SQL.String())
	})
	if err != nil {
		t.Fatalf("callback registration error = %v", err)
	}

	return db, queries
}

func TestGormCampaignRepoListSearchSpansListName(t *testing.T) {
	t.Parallel()

	db, queries := newDryRunDB(t)
	repo := NewGormCampaignRepo(db)

	if _, _, err := repo.List(context.Background(), "user-1", ListParams{Search: "launch"}); err != nil {
		t.Fatalf("List() error = %v", err)
	}

	var selectSQL string
	for _, q := range *queries {
		if strings.Contains(q, "campaigns.*") {
			selectSQL = q
		}
	}
	if selectSQL == "" {
		t.Fatalf("select query not captured, got %v", *queries)
	}

	if !strings.Contains(selectSQL, "LEFT JOIN contact_lists") {
		t.Fatalf("query = %q, want a contact_lists join for search", selectSQL)
	}
	if !strings.Contains(selectSQL, "campaigns.subject ILIKE") {
		t.Fatalf("query = %q, want subject match", selectSQL)
	}
	if !strings.Contains(selectSQL, "contact_lists.name ILIKE") {
		t.Fatalf("query = %q, want list-name match", selectSQL)
	}
	if !strings.Contains(selectSQL, "campaigns.user_id") {
		t.Fatalf("query = %q, want owner scoping on the joined query", selectSQL)
	}
}

func TestGormCampaignRepoListWithoutSearchSkipsJoin(t *testing.T) {
	t.Parallel()

	db, queries := newDryRunDB(t)
	repo := NewGormCampaignRepo(db)

	status := domain.StatusSent
	if _, _, err := repo.List(context.Background(), "user-1", ListParams{Status: &status}); err != nil {
		t.Fatalf("List() error = %v", err)
	}

	for _, q := range *queries {
		if strings.Contains(q, "JOIN") {
			t.Fatalf("query = %q, join should only appear for search", q)
		}
	}

	var selectSQL string
	for _, q := range *queries {
		if strings.Contains(q, "campaigns.*") {
			selectSQL = q
		}
	}
	if !strings.Contains(selectSQL, "campaigns.status") {
		t.Fatalf("query = %q, want status filter", selectSQL)
	}
}
