package fdfsproto

// Command codes, selected from the protocol's full table (spec §6).
const (
	// Tracker commands.
	CmdTrackerQueryStoreWithoutGroup byte = 101
	CmdTrackerQueryFetchOne          byte = 102
	CmdTrackerQueryUpdate            byte = 103
	CmdTrackerQueryStoreWithGroup    byte = 104
	CmdTrackerQueryFetchAll          byte = 105

	// Storage commands.
	CmdStorageUploadFile        byte = 11
	CmdStorageDeleteFile        byte = 12
	CmdStorageSetMetadata       byte = 13
	CmdStorageDownloadFile      byte = 14
	CmdStorageGetMetadata       byte = 15
	CmdStorageUploadSlaveFile   byte = 21
	CmdStorageQueryFileInfo     byte = 22
	CmdStorageUploadAppenderFile byte = 23
	CmdStorageAppendFile        byte = 24
	CmdStorageModifyFile        byte = 34
	CmdStorageTruncateFile      byte = 36

	// CmdResponse is shared by both roles.
	CmdResponse byte = 100
)

// StatusOK is the zero status byte meaning success.
const StatusOK byte = 0
