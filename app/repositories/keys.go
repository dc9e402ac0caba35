package repositories

// Blob store keys of the shared collections.
const (
	KeyClients    = "clients"
	KeyProducts   = "products"
	KeyOrders     = "orders"
	KeyCategories = "categories"
	KeyMessages   = "chat-messages"
)

// Per-session key prefixes; the session id follows the colon.
const (
	keyCart         = "cart:"
	keyCurrentUser  = "current-user:"
	keyAdminSession = "admin-session:"
)
