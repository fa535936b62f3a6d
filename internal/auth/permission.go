package auth

import "github.com/dukerupert/fantastictask/internal/model"

type Action string

const (
	ManageTasks       Action = "manage_tasks"
	AssignTasks       Action = "assign_tasks"
	VerifyCompletions Action = "verify_completions"
	CompleteForOther  Action = "complete_for_other"
	UndoCompletion    Action = "undo_completion"
	AdjustPoints      Action = "adjust_points"
	ManageMembers     Action = "manage_members"
	ChangeRole        Action = "change_role"
	RedeemReward      Action = "redeem_reward"
	ManagePIN         Action = "manage_pin"
)

// HasPermission reports whether actor may perform action. targetMemberID is
// the member the action concerns (the completer for undo, the redeemer for
// rewards); pass 0 when the action has no target.
func HasPermission(actor AuthContext, action Action, targetMemberID int64) bool {
	self := targetMemberID != 0 && targetMemberID == actor.MemberID

	switch action {
	case ManageTasks, AssignTasks, VerifyCompletions:
		return actor.Role == model.RoleAdmin || actor.Role == model.RoleMember
	case CompleteForOther, UndoCompletion:
		if self {
			return true
		}
		return actor.Role == model.RoleAdmin || actor.Role == model.RoleMember
	case AdjustPoints, ManageMembers, ChangeRole:
		return actor.Role == model.RoleAdmin
	case RedeemReward, ManagePIN:
		return self || actor.Role == model.RoleAdmin
	}
	return false
}
