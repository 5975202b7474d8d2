package handlers

import (
	"errors"
	"net/url"
	"strings"

	"github.com/Akin1234dot/Fifthlasb/internal/config"
)

// Allowlisted external photo hosts. Uploads through our own bucket are
// always allowed; anything else must come from a curated host.
var allowedPhotoHosts = []string{
	"lh3.googleusercontent.com",
	"avatars.githubusercontent.com",
	"api.dicebear.com",
	"res.cloudinary.com",
	"imagedelivery.net",
	"via.placeholder.com",
	"picsum.photos",
	"placehold.co",
	"images.unsplash.com",
	"i.imgur.com",
}

var allowedPhotoExtensions = []string{
	".png",
	".jpg",
	".jpeg",
	".webp",
	".gif",
	".svg",
}

// Hosts that serve images without a file extension in the path.
var noExtensionPhotoHosts = []string{
	"lh3.googleusercontent.com",
	"api.dicebear.com",
	"picsum.photos",
	"via.placeholder.com",
	"placehold.co",
	"imagedelivery.net",
	"res.cloudinary.com",
}

const maxPhotoURLLength = 2048

// ValidatePhotoURL checks that a profile photo URL is HTTPS, free of script
// payloads, and hosted somewhere we trust.
func ValidatePhotoURL(photoURL string) error {
	if len(photoURL) > maxPhotoURLLength {
		return errors.New("photo URL too long (max 2048 characters)")
	}

	photoURL = strings.TrimSpace(photoURL)
	if photoURL == "" {
		return errors.New("photo URL cannot be empty")
	}

	parsed, err := url.Parse(photoURL)
	if err != nil {
		return errors.New("invalid photo URL format")
	}

	if parsed.Scheme != "https" {
		return errors.New("only HTTPS photo URLs are allowed")
	}

	lowerURL := strings.ToLower(photoURL)
	if strings.HasPrefix(lowerURL, "javascript:") ||
		strings.HasPrefix(lowerURL, "data:") ||
		strings.Contains(lowerURL, "<script") ||
		strings.Contains(lowerURL, "onerror=") {
		return errors.New("unsafe photo URL detected")
	}

	// Our own bucket is always fine.
	if publicURL := config.AppConfig.StoragePublicURL; publicURL != "" &&
		strings.HasPrefix(photoURL, publicURL) {
		return nil
	}

	hostAllowed := false
	for _, allowedHost := range allowedPhotoHosts {
		if parsed.Host == allowedHost || strings.HasSuffix(parsed.Host, "."+allowedHost) {
			hostAllowed = true
			break
		}
	}
	if !hostAllowed {
		return errors.New("photo host not in allowlist")
	}

	lowerPath := strings.ToLower(parsed.Path)
	hasValidExtension := false
	for _, ext := range allowedPhotoExtensions {
		if strings.HasSuffix(lowerPath, ext) {
			hasValidExtension = true
			break
		}
	}
	if !hasValidExtension {
		for _, host := range noExtensionPhotoHosts {
			if strings.Contains(parsed.Host, host) {
				hasValidExtension = true
				break
			}
		}
	}
	if !hasValidExtension {
		return errors.New("URL must point to an image file (.png, .jpg, .jpeg, .webp, .gif, .svg)")
	}

	return nil
}
