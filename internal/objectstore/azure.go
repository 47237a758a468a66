// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ManuGH/callvault/internal/log"
)

// AzureOptions selects the container and how to authenticate against it.
type AzureOptions struct {
	Account          string
	Container        string
	ConnectionString string
	TenantID         string
	ClientID         string
	ClientSecret     string
	// Endpoint overrides https://<account>.blob.core.windows.net (Azurite, sovereign clouds).
	Endpoint string
}

// Azure reads from a single blob container.
type Azure struct {
	client *container.Client
}

// NewAzure builds a container client. A connection string wins; otherwise a
// service principal is used when its triple is set, falling back to the
// default credential chain.
func NewAzure(opts AzureOptions) (*Azure, error) {
	if opts.Container == "" {
		return nil, errors.New("objectstore: azure container is required")
	}
	clientOpts := &container.ClientOptions{
		ClientOptions: policy.ClientOptions{
			Transport: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		},
	}

	if opts.ConnectionString != "" {
		c, err := container.NewClientFromConnectionString(opts.ConnectionString, opts.Container, clientOpts)
		if err != nil {
			return nil, fmt.Errorf("objectstore: azure client from connection string: %w", err)
		}
		return &Azure{client: c}, nil
	}

	endpoint := strings.TrimSuffix(opts.Endpoint, "/")
	if endpoint == "" {
		if opts.Account == "" {
			return nil, errors.New("objectstore: azure account or connection string is required")
		}
		endpoint = fmt.Sprintf("https://%s.blob.core.windows.net", opts.Account)
	}

	var (
		cred azcore.TokenCredential
		err  error
	)
	if opts.TenantID != "" && opts.ClientID != "" && opts.ClientSecret != "" {
		cred, err = azidentity.NewClientSecretCredential(opts.TenantID, opts.ClientID, opts.ClientSecret, nil)
	} else {
		cred, err = azidentity.NewDefaultAzureCredential(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("objectstore: azure credential: %w", err)
	}

	c, err := container.NewClient(endpoint+"/"+opts.Container, cred, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("objectstore: azure client: %w", err)
	}
	return &Azure{client: c}, nil
}

func (s *Azure) List(ctx context.Context, prefix string) ([]string, error) {
	pager := s.client.NewListBlobsFlatPager(&container.ListBlobsFlatOptions{Prefix: to.Ptr(prefix)})
	var keys []string
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, mapAzureError(err, prefix)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				keys = append(keys, *item.Name)
			}
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Azure) Get(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()
	return io.ReadAll(rc)
}

func (s *Azure) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := s.client.NewBlobClient(key).DownloadStream(ctx, nil)
	if err != nil {
		return nil, mapAzureError(err, key)
	}
	return resp.Body, nil
}

func (s *Azure) Exists(ctx context.Context) (bool, error) {
	_, err := s.client.GetProperties(ctx, nil)
	if err == nil {
		return true, nil
	}
	if bloberror.HasCode(err, bloberror.ContainerNotFound) {
		return false, nil
	}
	return false, err
}

// FindByTags runs a blob index tag query and resolves each match's properties.
// Matches without user metadata, or whose properties cannot be read, are skipped.
func (s *Azure) FindByTags(ctx context.Context, q TagQuery) (TagPage, error) {
	where, err := q.Expression()
	if err != nil {
		return TagPage{}, err
	}
	opts := &container.FilterBlobsOptions{}
	if q.PageSize > 0 {
		opts.MaxResults = to.Ptr(int32(q.PageSize))
	}
	if q.ContinuationToken != "" {
		opts.Marker = to.Ptr(q.ContinuationToken)
	}

	resp, err := s.client.FilterBlobs(ctx, where, opts)
	if err != nil {
		return TagPage{}, mapAzureError(err, where)
	}

	logger := log.WithComponent("objectstore")
	page := TagPage{Objects: []TaggedObject{}}
	if resp.NextMarker != nil {
		page.ContinuationToken = *resp.NextMarker
	}
	for _, item := range resp.Blobs {
		if item == nil || item.Name == nil {
			continue
		}
		props, err := s.client.NewBlobClient(*item.Name).GetProperties(ctx, nil)
		if err != nil {
			if ctx.Err() != nil {
				return TagPage{}, ctx.Err()
			}
			logger.Warn().Err(err).Str(log.FieldObjectKey, *item.Name).Msg("failed to read blob properties")
			continue
		}
		if len(props.Metadata) == 0 {
			continue
		}
		obj := TaggedObject{Name: *item.Name, Metadata: make(map[string]string, len(props.Metadata))}
		for k, v := range props.Metadata {
			if v != nil {
				obj.Metadata[k] = *v
			}
		}
		if props.LastModified != nil {
			obj.LastModified = *props.LastModified
		}
		if props.ContentLength != nil {
			obj.ContentLength = *props.ContentLength
		}
		page.Objects = append(page.Objects, obj)
	}
	page.TotalCount = len(page.Objects)
	return page, nil
}

func mapAzureError(err error, key string) error {
	if bloberror.HasCode(err, bloberror.BlobNotFound, bloberror.ContainerNotFound, bloberror.ResourceNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return err
}
