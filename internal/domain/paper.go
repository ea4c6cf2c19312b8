package domain

import "context"

// Paper is the metadata fetched for one ArXiv entry.
type Paper struct {
	Title         string
	Authors       []string
	Summary       string
	Link          string
	PublishedYear int
}

type PaperFetcher interface {
	FetchByURL(ctx context.Context, url string) (Paper, error)
}

// ProvisionedDatabase points at the Notion database the integration
// writes papers into. ParentPageID is empty when the database lives at
// the workspace root.
type ProvisionedDatabase struct {
	DatabaseID   string
	ParentPageID string
}

// NotionWorkspaceClient is the write-side surface of the Notion API the
// pipeline and the OAuth flow need.
type NotionWorkspaceClient interface {
	ProvisionDatabase(ctx context.Context, accessToken, existingDatabaseID string) (ProvisionedDatabase, error)
	UpdatePaperPage(ctx context.Context, accessToken, pageID string, paper Paper) error
}
