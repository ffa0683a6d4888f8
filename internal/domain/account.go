package domain

// Roles stored on the user document
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// MaxProfiles is the per-account profile limit
const MaxProfiles = 5

// User is the account document stored under users/{uid}
type User struct {
	ID           string       `json:"id"`
	UID          string       `json:"uid"`
	Email        string       `json:"email"`
	DisplayName  string       `json:"displayName"`
	Role         string       `json:"role"`
	Subscription Subscription `json:"subscription"`
	CreatedAt    int64        `json:"createdAt"`
	UpdatedAt    int64        `json:"updatedAt,omitempty"`
}

// IsAdmin reports whether the stored role is admin
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Profile is a viewer profile under users/{uid}/profiles
type Profile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar"`
	IsKids    bool   `json:"isKids"`
	PIN       string `json:"pin"`
	CreatedAt int64  `json:"createdAt"`
}

// Avatar is a selectable profile picture
type Avatar struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Name string `json:"name"`
}

// Subscription is embedded in the user document
type Subscription struct {
	Plan      string `json:"plan"`
	StartDate int64  `json:"startDate"`
	EndDate   *int64 `json:"endDate"`
}

// Plan describes a subscription tier
type Plan struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	Features    []string `json:"features"`
	MaxProfiles int      `json:"maxProfiles"`
	Quality     string   `json:"quality"`
}

// Plan ids
const (
	PlanFree     = "free"
	PlanBasic    = "basic"
	PlanStandard = "standard"
	PlanPremium  = "premium"
)

// Plans lists the available subscription tiers, cheapest first
var Plans = []Plan{
	{
		ID:          PlanFree,
		Name:        "Gratuito",
		Price:       0,
		Features:    []string{"Acesso limitado", "1 perfil", "Qualidade SD", "Com anúncios"},
		MaxProfiles: 1,
		Quality:     "SD",
	},
	{
		ID:          PlanBasic,
		Name:        "Básico",
		Price:       19.90,
		Features:    []string{"Catálogo completo", "2 perfis", "Qualidade HD", "Sem anúncios"},
		MaxProfiles: 2,
		Quality:     "HD",
	},
	{
		ID:          PlanStandard,
		Name:        "Padrão",
		Price:       29.90,
		Features:    []string{"Catálogo completo", "4 perfis", "Qualidade Full HD", "Sem anúncios", "Download offline"},
		MaxProfiles: 4,
		Quality:     "FHD",
	},
	{
		ID:          PlanPremium,
		Name:        "Premium",
		Price:       49.90,
		Features:    []string{"Catálogo completo", "5 perfis", "Qualidade 4K", "Sem anúncios", "Download offline", "Conteúdo exclusivo"},
		MaxProfiles: 5,
		Quality:     "4K",
	},
}

// FindPlan looks up a plan by id
func FindPlan(id string) (Plan, bool) {
	for _, p := range Plans {
		if p.ID == id {
			return p, true
		}
	}
	return Plan{}, false
}

// Avatars is the built-in avatar catalogue. Kids avatars have ids prefixed "kids".
var Avatars = []Avatar{
	{ID: "avatar1", URL: "https://api.dicebear.com/7.x/initials/svg?seed=SA&backgroundColor=8b0000", Name: "Santo Agostinho"},
	{ID: "avatar2", URL: "https://api.dicebear.com/7.x/initials/svg?seed=SF&backgroundColor=1a5f7a", Name: "São Francisco"},
	{ID: "avatar3", URL: "https://api.dicebear.com/7.x/initials/svg?seed=MT&backgroundColor=6b4423", Name: "Madre Teresa"},
	{ID: "avatar4", URL: "https://api.dicebear.com/7.x/initials/svg?seed=SJ&backgroundColor=2d4a3e", Name: "São João"},
	{ID: "avatar5", URL: "https://api.dicebear.com/7.x/initials/svg?seed=SP&backgroundColor=4a235a", Name: "São Paulo"},
	{ID: "avatar6", URL: "https://api.dicebear.com/7.x/initials/svg?seed=SM&backgroundColor=1b4f72", Name: "Santa Maria"},
	{ID: "avatar7", URL: "https://api.dicebear.com/7.x/initials/svg?seed=PP&backgroundColor=7b241c", Name: "Papa Pio"},
	{ID: "avatar8", URL: "https://api.dicebear.com/7.x/initials/svg?seed=SB&backgroundColor=0e6655", Name: "São Bento"},
	{ID: "avatar9", URL: "https://api.dicebear.com/7.x/initials/svg?seed=ST&backgroundColor=5b2c6f", Name: "Santa Teresa"},
	{ID: "avatar10", URL: "https://api.dicebear.com/7.x/initials/svg?seed=SL&backgroundColor=784212", Name: "São Lucas"},
	{ID: "kids1", URL: "https://api.dicebear.com/7.x/fun-emoji/svg?seed=angel", Name: "Anjinho"},
	{ID: "kids2", URL: "https://api.dicebear.com/7.x/fun-emoji/svg?seed=star", Name: "Estrelinha"},
	{ID: "kids3", URL: "https://api.dicebear.com/7.x/fun-emoji/svg?seed=heart", Name: "Coração"},
	{ID: "kids4", URL: "https://api.dicebear.com/7.x/fun-emoji/svg?seed=rainbow", Name: "Arco-íris"},
}
