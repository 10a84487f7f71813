package configure

// User-visible toast texts.
const (
	MsgInstallSuccess = "Installation successfully finished"
	MsgInstallPartial = "Installation finished. Not all packages installed"
	MsgInstallFailed  = "Installation failed. Try again."

	MsgListInstallSuccess = "Package list successfully installed"
	MsgListInstallFailed  = "Package list installation failed"

	MsgListDeleteSuccess = "Package list successfully deleted"
	MsgListDeleteFailed  = "Some error occured while deleting package list"
	MsgDeleteRequestFail = "Some error occured while deleting packages"

	MsgUpdateSuccess     = "Packages successfully updated"
	MsgUpdateFailed      = "Packages update failed. Try again."
	MsgUpdateRequestFail = "Packages update failed"

	MsgCheckInstalled    = "All required dependencies installed"
	MsgCheckNotInstalled = "Not all required packages installed"
	MsgCheckFailed       = "Dependencies checking failed. Try again."

	MsgLoadFailed       = "Failed to load MediaDC settings"
	MsgMalformedSetting = "Installed state on the server is corrupted. Run a dependency check."
	MsgUnknownList      = "Unknown package list"
)
