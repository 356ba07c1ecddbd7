package domain

import "sort"

// ProductImage is an uploaded image attached to a product.
type ProductImage struct {
	ID               int64  `json:"id"`
	ImageURL         string `json:"imageUrl"`
	OriginalFilename string `json:"originalFilename,omitempty"`
	AltText          string `json:"altText,omitempty"`
	DisplayOrder     int    `json:"displayOrder"`
	IsPrimary        bool   `json:"isPrimary"`
	FileSize         int64  `json:"fileSize,omitempty"`
	ContentType      string `json:"contentType,omitempty"`
}

// GetID returns the image id.
func (i ProductImage) GetID() int64 { return i.ID }

// SortImages returns a copy of images ordered by display order, with at most
// one image flagged primary. When the backend flags several, the first in
// display order keeps the flag.
func SortImages(images []ProductImage) []ProductImage {
	out := make([]ProductImage, len(images))
	copy(out, images)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DisplayOrder < out[j].DisplayOrder
	})

	seen := false
	for i := range out {
		if out[i].IsPrimary {
			if seen {
				out[i].IsPrimary = false
			}
			seen = true
		}
	}
	return out
}

// PrimaryImage returns the index of the primary image, 0 when none is
// flagged, and -1 when images is empty.
func PrimaryImage(images []ProductImage) int {
	if len(images) == 0 {
		return -1
	}
	for i, img := range images {
		if img.IsPrimary {
			return i
		}
	}
	return 0
}
