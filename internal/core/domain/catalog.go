package domain

// ExpressAddonID is the add-on that makes an order urgent.
const ExpressAddonID = "express"

// Package is one priced tier of a service.
type Package struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	PriceUSD float64  `json:"price_usd"`
	PriceHTG float64  `json:"price_htg"`
	Features []string `json:"features"`
}

// Service groups the packages offered for one kind of deliverable.
type Service struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Packages    []Package `json:"packages"`
}

// Addon is an optional paid enhancement (upsell).
type Addon struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	PriceUSD float64 `json:"price_usd"`
	PriceHTG float64 `json:"price_htg"`
}

// Catalog is the read-only offer clients choose from.
type Catalog struct {
	Services []Service `json:"services"`
	Addons   []Addon   `json:"addons"`
}

// Service looks up a service by id.
func (c Catalog) Service(id string) (Service, bool) {
	for _, s := range c.Services {
		if s.ID == id {
			return s, true
		}
	}
	return Service{}, false
}

// Package looks up a package by id within the given service.
func (s Service) Package(id string) (Package, bool) {
	for _, p := range s.Packages {
		if p.ID == id {
			return p, true
		}
	}
	return Package{}, false
}

// Addon looks up an add-on by id.
func (c Catalog) Addon(id string) (Addon, bool) {
	for _, a := range c.Addons {
		if a.ID == id {
			return a, true
		}
	}
	return Addon{}, false
}

// DefaultCatalog returns the agency's current offer.
func DefaultCatalog() Catalog {
	return Catalog{
		Services: []Service{
			{
				ID:          "logo",
				Title:       "Logo Design",
				Description: "A memorable visual identity.",
				Packages: []Package{
					{ID: "logo-basic", Name: "Logo Basic", PriceUSD: 30, PriceHTG: 4000, Features: []string{"1 concept", "JPG/PNG files", "2 revisions"}},
					{ID: "logo-pro", Name: "Logo Pro", PriceUSD: 80, PriceHTG: 10500, Features: []string{"3 concepts", "Source files", "Unlimited revisions", "Social media kit"}},
					{ID: "logo-premium", Name: "Logo Premium", PriceUSD: 150, PriceHTG: 20000, Features: []string{"5 concepts", "Brand guidelines", "Stationery design", "Priority support"}},
				},
			},
			{
				ID:          "flyers",
				Title:       "Flyers & Visuals",
				Description: "Striking visuals for events and social networks.",
				Packages: []Package{
					{ID: "flyer-simple", Name: "Flyer Simple", PriceUSD: 25, PriceHTG: 3500, Features: []string{"1 design", "Web format", "2 revisions"}},
					{ID: "flyer-premium", Name: "Flyer Premium", PriceUSD: 60, PriceHTG: 8000, Features: []string{"High quality design", "Print format", "Unlimited revisions"}},
					{ID: "social-pack", Name: "Pack 5 Visuels", PriceUSD: 90, PriceHTG: 12000, Features: []string{"5 consistent designs", "Optimised for social networks", "Source files"}},
				},
			},
			{
				ID:          "branding",
				Title:       "Full Branding",
				Description: "A professional brand image from A to Z.",
				Packages: []Package{
					{ID: "branding-starter", Name: "Branding Starter", PriceUSD: 180, PriceHTG: 24000, Features: []string{"Logo Pro", "Colour palette", "Typography"}},
					{ID: "branding-business", Name: "Branding Business", PriceUSD: 350, PriceHTG: 47000, Features: []string{"Logo Premium", "Brand book", "Stationery", "Social media kit"}},
					{ID: "branding-elite", Name: "Branding Elite", PriceUSD: 600, PriceHTG: 80000, Features: []string{"Complete branding", "Brand strategy", "Showcase website", "One month of support"}},
				},
			},
			{
				ID:          "video",
				Title:       "Video Editing",
				Description: "Professional videos that bring ideas to life.",
				Packages: []Package{
					{ID: "video-simple", Name: "Montage Simple", PriceUSD: 40, PriceHTG: 5500, Features: []string{"Cut & assembly", "Royalty-free music", "Max 1 min"}},
					{ID: "video-ads", Name: "Vidéo Publicitaire", PriceUSD: 120, PriceHTG: 16000, Features: []string{"Motion graphics", "Voice over", "Optimised for ads"}},
					{ID: "video-premium", Name: "Vidéo Premium", PriceUSD: 250, PriceHTG: 33000, Features: []string{"High quality production", "Storytelling", "Special effects"}},
				},
			},
		},
		Addons: []Addon{
			{ID: ExpressAddonID, Name: "Livraison Express", PriceUSD: 20, PriceHTG: 2600},
			{ID: "unlimited", Name: "Révisions Illimitées", PriceUSD: 15, PriceHTG: 2000},
			{ID: "source", Name: "Fichiers Source", PriceUSD: 25, PriceHTG: 3300},
			{ID: "social", Name: "Pack Réseaux Sociaux", PriceUSD: 40, PriceHTG: 5300},
			{ID: "logo-animated", Name: "Logo Animé", PriceUSD: 50, PriceHTG: 6500},
		},
	}
}
