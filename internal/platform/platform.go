package platform

import "fmt"

// Platform identifies a social media destination.
type Platform string

const (
	Twitter   Platform = "twitter"
	Instagram Platform = "instagram"
	LinkedIn  Platform = "linkedin"
	Facebook  Platform = "facebook"
	Discord   Platform = "discord"
)

// All returns every supported platform in a stable order.
func All() []Platform {
	return []Platform{Twitter, Instagram, LinkedIn, Facebook, Discord}
}

// Parse validates a platform identifier.
func Parse(s string) (Platform, error) {
	switch Platform(s) {
	case Twitter, Instagram, LinkedIn, Facebook, Discord:
		return Platform(s), nil
	}
	return "", fmt.Errorf("unknown platform: %q", s)
}

// ParseAll validates a list of platform identifiers.
func ParseAll(names []string) ([]Platform, error) {
	platforms := make([]Platform, 0, len(names))
	for _, name := range names {
		p, err := Parse(name)
		if err != nil {
			return nil, err
		}
		platforms = append(platforms, p)
	}
	return platforms, nil
}

// CharLimit returns the maximum post text length the platform accepts.
func (p Platform) CharLimit() int {
	switch p {
	case Twitter:
		return 280
	case Discord:
		return 2000
	case Instagram:
		return 2200
	case LinkedIn:
		return 3000
	case Facebook:
		return 5000
	}
	return 280
}

// MaxImageBytes returns the platform's image upload size cap, 0 for no cap.
func (p Platform) MaxImageBytes() int64 {
	switch p {
	case Twitter:
		return 5 * 1024 * 1024
	case Discord:
		return 8 * 1024 * 1024
	}
	return 0
}

// ImageSize returns the image dimensions used when posting to the platform.
func (p Platform) ImageSize() (width, height int) {
	if p == Instagram {
		return 1080, 1080
	}
	return 1024, 1024
}

func (p Platform) String() string {
	return string(p)
}
