// Package cache reads and verifies an npm content-addressable cache in the
// cacache on-disk layout.
//
//	_cacache/
//	  index-v5/<hh>/<hh>/<rest of sha256(key)>   bucket files
//	  content-v2/<algo>/<hh>/<hh>/<rest of hex digest>
//
// Each bucket line is "<sha1 of json>\t<json>". Verification is read-only:
// content that is corrupt, unreferenced or missing is counted and never
// removed.
package cache
