package common

// TokenHeaderName is the HTTP header carrying the session token on
// authenticated requests.
const TokenHeaderName = "X-Token"

// RootParentID is the parent id of files stored at the top level.
const RootParentID = "0"
