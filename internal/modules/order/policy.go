package order

import (
	"github.com/georgemunganga/marketplace-api/internal/modules/auth"
	"github.com/georgemunganga/marketplace-api/internal/modules/user"
	"github.com/georgemunganga/marketplace-api/internal/platform/apperr"
)

// Action is an operation subject to authorization.
type Action string

const (
	ActionPlace        Action = "place"
	ActionView         Action = "view"
	ActionListOwn      Action = "list_own"
	ActionListSeller   Action = "list_seller"
	ActionListAll      Action = "list_all"
	ActionAnalytics    Action = "analytics"
	ActionUpdateStatus Action = "update_status"
	ActionCancel       Action = "cancel"
)

// rule decides whether a principal may act. o is nil for actions that are
// not about a single order.
type rule func(p auth.Principal, o *Order) bool

func always(auth.Principal, *Order) bool { return true }

func ownsOrder(p auth.Principal, o *Order) bool {
	return o != nil && o.Customer.ID.String() == p.UserID
}

func sellsIn(p auth.Principal, o *Order) bool {
	return o != nil && o.HasSeller(p.UserID)
}

type grant struct {
	allow  rule
	denial string
}

// policy holds every (action, role) pair that can be granted. A missing
// role means the action is closed to it.
var policy = map[Action]map[user.Role]grant{
	ActionPlace: {
		user.RoleCustomer: {always, ""},
	},
	ActionView: {
		user.RoleCustomer: {ownsOrder, "you can only view your own orders"},
		user.RoleSeller:   {sellsIn, "you can only view orders containing your products"},
		user.RoleAdmin:    {always, ""},
	},
	ActionListOwn: {
		user.RoleCustomer: {always, ""},
	},
	ActionListSeller: {
		user.RoleSeller: {always, ""},
	},
	ActionListAll: {
		user.RoleAdmin: {always, ""},
	},
	ActionAnalytics: {
		user.RoleSeller: {always, ""},
		user.RoleAdmin:  {always, ""},
	},
	ActionUpdateStatus: {
		user.RoleCustomer: {ownsOrder, "you can only update your own orders"},
		user.RoleSeller:   {sellsIn, "you can only update orders containing your products"},
		user.RoleAdmin:    {always, ""},
	},
	ActionCancel: {
		user.RoleCustomer: {ownsOrder, "you can only cancel your own orders"},
		user.RoleSeller:   {sellsIn, "you can only cancel orders containing your products"},
		user.RoleAdmin:    {always, ""},
	},
}

var closedMessages = map[Action]string{
	ActionPlace:        "only customers can place orders",
	ActionListOwn:      "only customers can list their orders",
	ActionListSeller:   "only sellers can list seller orders",
	ActionListAll:      "only admins can list all orders",
	ActionAnalytics:    "only admins and sellers can view analytics",
	ActionView:         "access denied",
	ActionUpdateStatus: "access denied",
	ActionCancel:       "access denied",
}

// Authorize evaluates the policy table. It returns Forbidden on denial.
func Authorize(p auth.Principal, action Action, o *Order) error {
	g, ok := policy[action][p.Role]
	if !ok {
		return apperr.Forbidden("%s", closedMessages[action])
	}
	if !g.allow(p, o) {
		return apperr.Forbidden("%s", g.denial)
	}
	return nil
}

// roleTargets lists the statuses each role may request via a status update.
var roleTargets = map[user.Role][]Status{
	user.RoleCustomer: {StatusCancelled},
	user.RoleSeller:   allStatuses,
	user.RoleAdmin:    allStatuses,
}

// authorizeTarget is checked before the order is loaded, so its outcome
// never depends on the order's state.
func authorizeTarget(p auth.Principal, target Status) error {
	for _, s := range roleTargets[p.Role] {
		if s == target {
			return nil
		}
	}
	if p.Is(user.RoleCustomer) {
		return apperr.Forbidden("customers can only cancel orders")
	}
	return apperr.Forbidden("role %s cannot set status %s", p.Role, target)
}
