package firebase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"storefront-backend/utils"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// sanitizeFilename removes special characters from filenames and limits length.
func sanitizeFilename(filename string) string {
	sanitized := unsafeFilenameChars.ReplaceAllString(filename, "_")

	if len(sanitized) > 100 {
		sanitized = sanitized[:100]
	}

	if sanitized == "" || sanitized == "." || sanitized == ".." {
		sanitized = "file"
	}

	return sanitized
}

var privateRanges = []*net.IPNet{
	parseCIDR("10.0.0.0/8"),
	parseCIDR("172.16.0.0/12"),
	parseCIDR("192.168.0.0/16"),
	parseCIDR("127.0.0.0/8"),
	parseCIDR("169.254.0.0/16"),
	parseCIDR("0.0.0.0/8"),
	parseCIDR("::1/128"),
	parseCIDR("fc00::/7"),
	parseCIDR("fe80::/10"),
}

// isPrivateIP checks whether an IP address is a private/reserved address.
func isPrivateIP(ip net.IP) bool {
	for _, network := range privateRanges {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

func parseCIDR(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(fmt.Sprintf("invalid CIDR: %s", cidr))
	}
	return network
}

// validateExternalURL validates that a URL is safe to fetch (prevents SSRF).
func validateExternalURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL scheme '%s' is not allowed; only http and https are permitted", parsed.Scheme)
	}

	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("URL has no hostname")
	}
	if strings.EqualFold(host, "localhost") {
		return fmt.Errorf("requests to localhost are not allowed")
	}

	ips, err := net.LookupIP(host)
	if err != nil {
		return fmt.Errorf("failed to resolve hostname '%s': %v", host, err)
	}
	for _, ip := range ips {
		if isPrivateIP(ip) {
			return fmt.Errorf("URL resolves to private IP address %s, which is not allowed", ip.String())
		}
	}

	return nil
}

// imageFetcher downloads remote images, checking every URL (redirects
// included) before it is requested.
type imageFetcher struct {
	client   *http.Client
	validate func(rawURL string) error
}

func newImageFetcher(validate func(string) error) *imageFetcher {
	f := &imageFetcher{validate: validate}
	f.client = &http.Client{
		Timeout: 30 * time.Second,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 5 {
				return fmt.Errorf("too many redirects")
			}
			return f.validate(req.URL.String())
		},
	}
	return f
}

// fetch returns the image body, capped at utils.MaxUploadSize, and its
// content type. The caller closes the body.
func (f *imageFetcher) fetch(ctx context.Context, imageURL string) (io.ReadCloser, string, error) {
	if err := f.validate(imageURL); err != nil {
		return nil, "", fmt.Errorf("URL validation failed for %s: %v", imageURL, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download image from %s: %v", imageURL, err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, "", fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		resp.Body.Close()
		return nil, "", fmt.Errorf("URL %s returned non-image content-type: %q (expected image/*)", imageURL, contentType)
	}
	if resp.ContentLength > utils.MaxUploadSize {
		resp.Body.Close()
		return nil, "", fmt.Errorf("image at %s is larger than %d bytes", imageURL, utils.MaxUploadSize)
	}

	body := struct {
		io.Reader
		io.Closer
	}{io.LimitReader(resp.Body, utils.MaxUploadSize), resp.Body}
	return body, contentType, nil
}

// Storage stores images in the project's Firebase Storage bucket and
// serves them from public storage.googleapis.com URLs.
type Storage struct {
	bucket     *storage.BucketHandle
	bucketName string
	fetcher    *imageFetcher
	log        *zap.Logger
}

// New initialises the Firebase app. credentials may be inline JSON, a
// file path, or empty for application default credentials.
func New(ctx context.Context, bucketName, credentials string, log *zap.Logger) (*Storage, error) {
	if bucketName == "" {
		return nil, fmt.Errorf("FIREBASE_STORAGE_BUCKET not set")
	}

	var opts []option.ClientOption
	switch {
	case strings.HasPrefix(strings.TrimSpace(credentials), "{"):
		log.Info("using Firebase credentials from environment variable")
		opts = append(opts, option.WithCredentialsJSON([]byte(credentials)))
	case credentials != "":
		log.Info("using Firebase credentials from file", zap.String("path", credentials))
		opts = append(opts, option.WithCredentialsFile(credentials))
	default:
		log.Warn("GOOGLE_APPLICATION_CREDENTIALS not set, using default credentials")
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{StorageBucket: bucketName}, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase init failed: %w", err)
	}
	client, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase storage client: %w", err)
	}
	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("firebase bucket %s: %w", bucketName, err)
	}

	log.Info("Firebase storage initialized", zap.String("bucket", bucketName))
	return &Storage{
		bucket:     bucket,
		bucketName: bucketName,
		fetcher:    newImageFetcher(validateExternalURL),
		log:        log,
	}, nil
}

func objectPath(folder, filename string) string {
	return fmt.Sprintf("%s/%s_%s", strings.Trim(folder, "/"), uuid.NewString()[:8], sanitizeFilename(filename))
}

func publicURL(bucketName, path string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucketName, path)
}

func (s *Storage) UploadImage(ctx context.Context, r io.Reader, folder, filename, contentType string) (string, error) {
	path := objectPath(folder, filename)

	obj := s.bucket.Object(path)
	wc := obj.NewWriter(ctx)
	wc.ContentType = contentType

	if _, err := io.Copy(wc, r); err != nil {
		wc.Close()
		return "", fmt.Errorf("failed to upload %s: %w", path, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload: %w", err)
	}

	// Public read so the URL works without authentication.
	if err := obj.ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		s.log.Warn("failed to set public ACL", zap.String("object", path), zap.Error(err))
	}

	return publicURL(s.bucketName, path), nil
}

// DeleteURL removes the object behind a URL previously returned by
// UploadImage. An object that is already gone is not an error.
func (s *Storage) DeleteURL(ctx context.Context, imageURL string) error {
	path, err := utils.ExtractObjectPath(imageURL)
	if err != nil {
		return err
	}
	if err := s.bucket.Object(path).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete object %s: %w", path, err)
	}
	s.log.Info("deleted file", zap.String("object", path), zap.String("bucket", s.bucketName))
	return nil
}

// ImportRemoteImage downloads an image from an external URL and stores it
// under folder.
func (s *Storage) ImportRemoteImage(ctx context.Context, imageURL, folder string) (string, error) {
	body, contentType, err := s.fetcher.fetch(ctx, imageURL)
	if err != nil {
		return "", err
	}
	defer body.Close()

	name := "image"
	if u, err := url.Parse(imageURL); err == nil {
		if base := u.Path[strings.LastIndex(u.Path, "/")+1:]; base != "" {
			name = base
		}
	}
	return s.UploadImage(ctx, body, folder, name, contentType)
}
