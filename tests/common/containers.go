package common

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const siteImage = "nginx:1.27-alpine"

var (
	siteContainer *SiteContainer
	siteOnce      sync.Once
	siteStartErr  error
)

// SiteContainer serves the fixture site from nginx, the way the guide app
// is served in deployment.
type SiteContainer struct {
	container testcontainers.Container
	url       string
}

// URL returns the base URL of the running site container.
func (s *SiteContainer) URL() string {
	return s.url
}

// CollectLogs saves the nginx access/error log to dir/site.log.
func (s *SiteContainer) CollectLogs(dir string) {
	if s == nil || s.container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	reader, err := s.container.Logs(ctx)
	if err != nil {
		return
	}
	defer reader.Close()

	logs, err := io.ReadAll(reader)
	if err != nil {
		return
	}
	os.MkdirAll(dir, 0755)
	os.WriteFile(filepath.Join(dir, "site.log"), logs, 0644)
}

// Cleanup terminates the container with a fresh context, in case the
// caller's context already expired.
func (s *SiteContainer) Cleanup() {
	if s == nil || s.container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	s.container.Terminate(ctx)
}

func startSiteContainer() (*SiteContainer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	req := testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        siteImage,
			ExposedPorts: []string{"80/tcp"},
			Files: []testcontainers.ContainerFile{{
				HostFilePath:      filepath.Join(FixtureSiteDir(), "index.html"),
				ContainerFilePath: "/usr/share/nginx/html/index.html",
				FileMode:          0644,
			}},
			WaitingFor: wait.ForHTTP("/index.html").WithPort("80/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	}

	ctr, err := testcontainers.GenericContainer(ctx, req)
	if err != nil {
		if ctr != nil {
			ctr.Terminate(context.Background())
		}
		return nil, fmt.Errorf("start %s: %w", siteImage, err)
	}

	host, err := ctr.Host(ctx)
	if err != nil {
		ctr.Terminate(context.Background())
		return nil, fmt.Errorf("get site host: %w", err)
	}
	port, err := ctr.MappedPort(ctx, "80/tcp")
	if err != nil {
		ctr.Terminate(context.Background())
		return nil, fmt.Errorf("get site mapped port: %w", err)
	}

	return &SiteContainer{
		container: ctr,
		url:       fmt.Sprintf("http://%s:%s", host, port.Port()),
	}, nil
}

// StartSite starts the nginx fixture container once per test process.
// The test is skipped when Docker is unavailable.
func StartSite(t *testing.T) *SiteContainer {
	t.Helper()
	if testing.Short() {
		t.Skip("container test skipped in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	siteOnce.Do(func() {
		siteContainer, siteStartErr = startSiteContainer()
	})
	if siteStartErr != nil {
		t.Fatalf("Failed to start site container: %v", siteStartErr)
	}
	return siteContainer
}

// StopSite tears down the shared container; call it from TestMain.
func StopSite() {
	if siteContainer != nil {
		siteContainer.CollectLogs(GetResultsDir())
		siteContainer.Cleanup()
	}
}
