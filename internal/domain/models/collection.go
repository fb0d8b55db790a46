package models

// CollectionEntry records one farmer's milk drop-off. Rate is the price per
// liter resolved at submission and is never recomputed afterwards.
type CollectionEntry struct {
	ID               string  `json:"id,omitempty" bson:"id,omitempty"`
	UserID           string  `json:"userId" bson:"user_id"`
	UserName         string  `json:"userName,omitempty" bson:"user_name,omitempty"`
	Date             string  `json:"date" bson:"date"`
	Time             string  `json:"time" bson:"time"`
	Liters           float64 `json:"liters" bson:"liters"`
	FatPercentage    float64 `json:"fatPercentage" bson:"fat_percentage"`
	Rate             float64 `json:"rate" bson:"rate"`
	Amount           float64 `json:"amount" bson:"amount"`
	IsManuallyEdited bool    `json:"isManuallyEdited" bson:"is_manually_edited"`
}

// CollectionInput is what an operator submits from the entry form.
type CollectionInput struct {
	UserID        string  `json:"userId"`
	Date          string  `json:"date"`
	Time          string  `json:"time"`
	Liters        float64 `json:"liters"`
	FatPercentage float64 `json:"fatPercentage"`
	Amount        float64 `json:"amount"`
}

// CollectionQuery filters collection listings.
type CollectionQuery struct {
	UserID    string
	StartDate string
	EndDate   string
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}
