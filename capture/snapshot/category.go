package snapshot

// Category is the closed classification of a captured resource. It routes
// persistence (which directory) and fetch behaviour.
type Category string

const (
	CategoryVideo      Category = "video"
	CategoryImage      Category = "image"
	CategoryStylesheet Category = "stylesheet"
	CategoryScript     Category = "script"
	CategoryFont       Category = "font"
	CategoryManifest   Category = "manifest"
	CategoryOther      Category = "other"
)

var allCategories = []Category{
	CategoryVideo,
	CategoryImage,
	CategoryStylesheet,
	CategoryScript,
	CategoryFont,
	CategoryManifest,
	CategoryOther,
}

// Categories returns every category in a stable order.
func Categories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

// Dir returns the output subdirectory for the category.
func (c Category) Dir() string {
	switch c {
	case CategoryVideo:
		return "videos"
	case CategoryImage:
		return "images"
	case CategoryStylesheet:
		return "css"
	case CategoryScript:
		return "js"
	case CategoryFont:
		return "fonts"
	case CategoryManifest:
		return "manifests"
	default:
		return "other"
	}
}

// DefaultExt is the file extension used when a URL carries none.
func (c Category) DefaultExt() string {
	switch c {
	case CategoryVideo:
		return ".mp4"
	case CategoryImage:
		return ".png"
	case CategoryStylesheet:
		return ".css"
	case CategoryScript:
		return ".js"
	case CategoryFont:
		return ".woff2"
	case CategoryManifest:
		return ".m3u8"
	default:
		return ".bin"
	}
}

// ParseCategory maps a name (as used in config files) to a Category.
// Plural directory names are accepted too ("images", "css", "js").
func ParseCategory(s string) (Category, bool) {
	for _, c := range allCategories {
		if s == string(c) || s == c.Dir() {
			return c, true
		}
	}
	return "", false
}
