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

package constant

// https://www.postgresql.org/docs/current/protocol-message-formats.html

// ProtocolVersion is protocol 3.0, the only version spoken here.
const ProtocolVersion = 196608

// Frontend message tags.
const (
	ComQuery     byte = 'Q'
	ComPassword  byte = 'p'
	ComTerminate byte = 'X'
)

// Backend message tags.
const (
	ServerAuthentication  byte = 'R'
	ServerParameterStatus byte = 'S'
	ServerBackendKeyData  byte = 'K'
	ServerReadyForQuery   byte = 'Z'
	ServerRowDescription  byte = 'T'
	ServerDataRow         byte = 'D'
	ServerCommandComplete byte = 'C'
	ServerEmptyQuery      byte = 'I'
	ServerError           byte = 'E'
	ServerNotice          byte = 'N'
	ServerNotification    byte = 'A'
)

// Authentication request codes carried in an 'R' message.
const (
	AuthOk                = 0
	AuthCleartextPassword = 3
	AuthMD5Password       = 5
)

// Transaction status reported by ReadyForQuery.
const (
	TxStatusIdle        byte = 'I'
	TxStatusInBlock     byte = 'T'
	TxStatusFailedBlock byte = 'E'
)

// Fields of an ErrorResponse or NoticeResponse message.
const (
	FieldSeverity byte = 'S'
	FieldCode     byte = 'C'
	FieldMessage  byte = 'M'
	FieldDetail   byte = 'D'
	FieldHint     byte = 'H'
	FieldPosition byte = 'P'
)

// SQLSTATE codes raised on the client side.
const (
	SQLStateConnectionException  = "08000"
	SQLStateConnectionFailure    = "08006"
	SQLStateCannotConnect        = "08001"
	SQLStateProtocolViolation    = "08P01"
	SQLStateFeatureNotSupported  = "0A000"
	SQLStateInvalidAuthorization = "28000"
	SQLStateInvalidPassword      = "28P01"
	SQLStateQueryCanceled        = "57014"
)

// Connection defaults.
const (
	DefaultHost = "localhost"
	DefaultPort = 5432
)
