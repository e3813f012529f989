package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listgraph/listgraph/pkg/errors"
	"github.com/listgraph/listgraph/pkg/schema"
)

// fakeFetcher returns canned lists or a canned error.
type fakeFetcher struct {
	lists []schema.List
	err   error
}

func (f *fakeFetcher) Lists(ctx context.Context, siteID string) ([]schema.List, error) {
	return f.lists, f.err
}

func ordersCustomers() []schema.List {
	return []schema.List{
		{ID: "orders-id", DisplayName: "Orders", Columns: []schema.Column{
			{Name: "Title", Kind: schema.KindText},
			{Name: "CustomerRef", Kind: schema.KindLookup, TargetListID: "customers-id"},
		}},
		{ID: "customers-id", DisplayName: "Customers", Columns: []schema.Column{
			{Name: "Name", Kind: schema.KindText},
		}},
	}
}

// pngMagic is the PNG file signature.
var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestRunEndToEnd(t *testing.T) {
	runner := NewRunner(&fakeFetcher{lists: ordersCustomers()}, nil)
	output := filepath.Join(t.TempDir(), "out", "schema.png")

	result, err := runner.Run(context.Background(), Options{
		SiteID: "site-a",
		Output: output,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Stats.ListCount)
	assert.Equal(t, 1, result.Stats.EdgeCount)
	assert.Contains(t, result.DOT, "<B>Orders</B>")
	assert.Contains(t, result.DOT, "<B>Customers</B>")
	assert.Contains(t, result.DOT, `"orders-id" -> "customers-id" [label="CustomerRef"];`)
	assert.True(t, bytes.HasPrefix(result.Artifact, pngMagic), "artifact is not a PNG")

	written, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, result.Artifact, written)
	assert.Equal(t, output, result.Path)
}

func TestRunSVG(t *testing.T) {
	runner := NewRunner(&fakeFetcher{lists: ordersCustomers()}, nil)

	result, err := runner.Run(context.Background(), Options{
		SiteID: "site-a",
		Format: FormatSVG,
	})
	require.NoError(t, err)
	assert.Contains(t, string(result.Artifact), "<svg")
	assert.Empty(t, result.Path)
}

func TestRunRequiresSiteID(t *testing.T) {
	runner := NewRunner(&fakeFetcher{}, nil)
	_, err := runner.Run(context.Background(), Options{})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidSite), "err = %v", err)
}

func TestRunRejectsUnknownFormat(t *testing.T) {
	runner := NewRunner(&fakeFetcher{lists: ordersCustomers()}, nil)
	_, err := runner.Run(context.Background(), Options{SiteID: "s", Format: "gif"})
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidFormat), "err = %v", err)
}

func TestRunNoListsIsNotFound(t *testing.T) {
	runner := NewRunner(&fakeFetcher{}, nil)
	_, err := runner.Run(context.Background(), Options{SiteID: "site-a"})
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound), "err = %v", err)
}

func TestRunPropagatesFetchError(t *testing.T) {
	fetchErr := errors.New(errors.ErrCodeUnauthorized, "token expired")
	runner := NewRunner(&fakeFetcher{err: fetchErr}, nil)

	_, err := runner.Run(context.Background(), Options{SiteID: "site-a"})
	assert.True(t, errors.Is(err, errors.ErrCodeUnauthorized), "err = %v", err)
}
