package locale

// Text keys used by the handlers.
const (
	KeyStart             = "start_msg"
	KeyOnlyGroupCommand  = "only_group_command"
	KeyRegisterButton    = "register_btn"
	KeyRegisterMessage   = "register_msg"
	KeyAlreadyRegistered = "already_registered"
	KeyNotMember         = "not_member"
	KeyWelcomeUser       = "welcome_user_msg"
	KeyInvalidFormat     = "invalid_format"
	KeyRegisterSuccess   = "register_success"
	KeyNoGroups          = "no_groups"
	KeySelectGroup       = "select_group"
	KeyUnknownGroup      = "unknown_group"
	KeyNoUsersCSV        = "no_users_csv"
	KeyCSVCaption        = "csv_caption"
	KeyInputUserID       = "input_user_id"
	KeyInfoNotFound      = "info_not_found"
	KeyInfoTemplate      = "info_template"
	KeyInvalidLink       = "invalid_link"
	KeyNoRegistrations   = "no_registrations"
	KeyChatID            = "chat_id"
	KeyErrorGeneric      = "error_generic"
)
