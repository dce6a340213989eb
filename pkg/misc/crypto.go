/*
 * Copyright 2022 CECTC, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package misc

import (
	"crypto/md5"
	"encoding/hex"
)

// HashMD5Password answers an MD5 authentication challenge. The server
// expects "md5" + hex(md5(hex(md5(password + user)) + salt)).
func HashMD5Password(user, password string, salt []byte) string {
	inner := md5.Sum([]byte(password + user))
	outer := md5.New()
	outer.Write([]byte(hex.EncodeToString(inner[:])))
	outer.Write(salt)
	return "md5" + hex.EncodeToString(outer.Sum(nil))
}
