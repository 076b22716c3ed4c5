package utils

import "testing"

func TestExtractObjectPathValid(t *testing.T) {
	path, err := ExtractObjectPath("https://storage.googleapis.com/my-bucket/products/image.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if path != "products/image.jpg" {
		t.Errorf("expected 'products/image.jpg', got '%s'", path)
	}
}

func TestExtractObjectPathStripsQuery(t *testing.T) {
	path, err := ExtractObjectPath("https://storage.googleapis.com/my-bucket/categories/a.png?v=2")
	if err != nil {
		t.Fatal(err)
	}
	if path != "categories/a.png" {
		t.Errorf("expected 'categories/a.png', got '%s'", path)
	}
}

func TestExtractObjectPathFirebaseDownloadURL(t *testing.T) {
	path, err := ExtractObjectPath("https://firebasestorage.googleapis.com/v0/b/my-bucket/o/products%2Fabc%2Fimage.jpg?alt=media&token=x")
	if err != nil {
		t.Fatal(err)
	}
	if path != "products/abc/image.jpg" {
		t.Errorf("expected 'products/abc/image.jpg', got '%s'", path)
	}
}

func TestExtractObjectPathInvalidPrefix(t *testing.T) {
	_, err := ExtractObjectPath("https://example.com/my-bucket/products/image.jpg")
	if err == nil {
		t.Fatal("expected error for invalid prefix")
	}
}

func TestExtractObjectPathNoBucketSeparator(t *testing.T) {
	_, err := ExtractObjectPath("https://storage.googleapis.com/nobucket")
	if err == nil {
		t.Fatal("expected error for no bucket separator")
	}
}
