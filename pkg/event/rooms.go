package event

// Room key conventions. Keys are opaque strings to the registry and hub;
// these helpers are the canonical way producers and subscribers build them.

// DriverPoolRoom is the shared room every available driver joins.
const DriverPoolRoom = "driver-pool"

// RestaurantRoom returns the room key for a restaurant's order feed.
func RestaurantRoom(restaurantID string) string {
	return "restaurant_" + restaurantID
}

// UserRoom returns the room key for a user's personal notifications.
func UserRoom(userID string) string {
	return "user_" + userID
}
