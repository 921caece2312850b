package catalog

import "strings"

const (
	youTubeSite     = "YouTube"
	trailerType     = "Trailer"
	youTubeEmbedURL = "https://www.youtube.com/embed/"
)

// ResolveTrailerURL picks the video to embed on the detail view. In order of
// preference: an official YouTube trailer, any YouTube trailer, any YouTube
// video. It reports false when no YouTube entry exists.
func ResolveTrailerURL(videos []Video) (string, bool) {
	var trailer, anyVideo *Video

	for i := range videos {
		v := &videos[i]
		if v.Site != youTubeSite || v.Key == "" {
			continue
		}
		if v.Type == trailerType {
			if strings.Contains(strings.ToLower(v.Name), "official") {
				return youTubeEmbedURL + v.Key, true
			}
			if trailer == nil {
				trailer = v
			}
		}
		if anyVideo == nil {
			anyVideo = v
		}
	}

	switch {
	case trailer != nil:
		return youTubeEmbedURL + trailer.Key, true
	case anyVideo != nil:
		return youTubeEmbedURL + anyVideo.Key, true
	default:
		return "", false
	}
}
