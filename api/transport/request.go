package transport

type AuthLoginRequest struct {
	UserID string `json:"user_id"`
	TTL    int    `json:"ttl_seconds"`
}

type RefreshRequest struct {
	SessionID string `json:"session_id"`
	TTL       int    `json:"ttl_seconds"`
}

type RegisterRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Gender    string `json:"gender"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	Pincode   string `json:"pincode"`
	Role      string `json:"role"`
}

type ProfileUpdateRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Gender    string `json:"gender"`
	Address   string `json:"address"`
	Pincode   string `json:"pincode"`
}

type LocationRequest struct {
	City  string `json:"city"`
	State string `json:"state"`
}

type DonationRequest struct {
	FoodType        string `json:"food_type"`
	Quantity        string `json:"quantity"`
	CookingTime     string `json:"cooking_time"`
	Address         string `json:"address"`
	City            string `json:"city"`
	State           string `json:"state"`
	Pincode         string `json:"pincode"`
	Phone           string `json:"phone"`
	DonorToAdminMsg string `json:"donor_to_admin_msg"`
	PhotoPath       string `json:"photo_path"`
}

type CollectRequest struct {
	Checklist map[string]string `json:"checklist"`
}

type FeedbackRequest struct {
	Rating   int    `json:"rating"`
	Comments string `json:"comments"`
}

type VerificationRequest struct {
	Status string `json:"status"`
}
