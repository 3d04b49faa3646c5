package domain

import "context"

// CropCatalog resolves crop names to their DSSAT code and data directory.
type CropCatalog interface {
	// Crops lists every known crop.
	Crops(ctx context.Context) ([]Crop, error)

	// Crop looks up a crop by name, ignoring case. It returns ErrUnknownCrop
	// when the name is not in the catalog.
	Crop(ctx context.Context, name string) (Crop, error)
}

// Dictionary supplies the variable code dictionary.
type Dictionary interface {
	Codes() CodeDictionary
}
