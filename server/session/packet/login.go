package packet

import (
	"bytes"

	"github.com/dm-vev/ferrite/server/protocol"
	"github.com/google/uuid"
)

// LoginStart is the first packet of the Login state.
type LoginStart struct {
	Name string
}

func DecodeLoginStart(r *protocol.Reader) (LoginStart, error) {
	name, err := protocol.ReadString(r, 16)
	return LoginStart{Name: name}, err
}

func EncodeLoginStart(w *bytes.Buffer, p LoginStart) error {
	return protocol.WriteString(w, p.Name)
}

// EncryptionRequest is sent when the login acceptor requests encryption.
type EncryptionRequest struct {
	ServerID    string
	PublicKey   []byte
	VerifyToken []byte
}

func EncodeEncryptionRequest(w *bytes.Buffer, p EncryptionRequest) error {
	if err := protocol.WriteString(w, p.ServerID); err != nil {
		return err
	}
	if err := protocol.WriteVarInt(w, int32(len(p.PublicKey))); err != nil {
		return err
	}
	w.Write(p.PublicKey)
	if err := protocol.WriteVarInt(w, int32(len(p.VerifyToken))); err != nil {
		return err
	}
	w.Write(p.VerifyToken)
	return nil
}

func DecodeEncryptionRequest(r *protocol.Reader) (EncryptionRequest, error) {
	var p EncryptionRequest
	sid, err := protocol.ReadString(r, protocol.DefaultMaxStringLength)
	if err != nil {
		return p, err
	}
	p.ServerID = sid
	keyLen, err := protocol.ReadVarInt(r)
	if err != nil {
		return p, err
	}
	p.PublicKey = make([]byte, keyLen)
	if _, err := r.Read(p.PublicKey); err != nil {
		return p, err
	}
	tokLen, err := protocol.ReadVarInt(r)
	if err != nil {
		return p, err
	}
	p.VerifyToken = make([]byte, tokLen)
	_, err = r.Read(p.VerifyToken)
	return p, err
}

// EncryptionResponse answers an EncryptionRequest.
type EncryptionResponse struct {
	SharedSecret []byte
	VerifyToken  []byte
}

func DecodeEncryptionResponse(r *protocol.Reader) (EncryptionResponse, error) {
	var p EncryptionResponse
	secretLen, err := protocol.ReadVarInt(r)
	if err != nil {
		return p, err
	}
	p.SharedSecret = make([]byte, secretLen)
	if _, err := r.Read(p.SharedSecret); err != nil {
		return p, err
	}
	tokLen, err := protocol.ReadVarInt(r)
	if err != nil {
		return p, err
	}
	p.VerifyToken = make([]byte, tokLen)
	_, err = r.Read(p.VerifyToken)
	return p, err
}

func EncodeEncryptionResponse(w *bytes.Buffer, p EncryptionResponse) error {
	if err := protocol.WriteVarInt(w, int32(len(p.SharedSecret))); err != nil {
		return err
	}
	w.Write(p.SharedSecret)
	if err := protocol.WriteVarInt(w, int32(len(p.VerifyToken))); err != nil {
		return err
	}
	w.Write(p.VerifyToken)
	return nil
}

// SetCompression announces the compression threshold to use starting with
// the next frame in both directions.
type SetCompression struct {
	Threshold int32
}

func EncodeSetCompression(w *bytes.Buffer, p SetCompression) error {
	return protocol.WriteVarInt(w, p.Threshold)
}

func DecodeSetCompression(r *protocol.Reader) (SetCompression, error) {
	v, err := protocol.ReadVarInt(r)
	return SetCompression{Threshold: v}, err
}

// LoginSuccess finalizes the login and transitions the session to Play.
type LoginSuccess struct {
	UUID     uuid.UUID
	Username string
}

func EncodeLoginSuccess(w *bytes.Buffer, p LoginSuccess) error {
	if err := protocol.WriteUUID(w, p.UUID); err != nil {
		return err
	}
	return protocol.WriteString(w, p.Username)
}

func DecodeLoginSuccess(r *protocol.Reader) (LoginSuccess, error) {
	var p LoginSuccess
	id, err := protocol.ReadUUID(r)
	if err != nil {
		return p, err
	}
	p.UUID = id
	name, err := protocol.ReadString(r, 16)
	p.Username = name
	return p, err
}

// LoginDisconnect carries a JSON chat component reason.
type LoginDisconnect struct {
	Reason string
}

func EncodeLoginDisconnect(w *bytes.Buffer, p LoginDisconnect) error {
	return protocol.WriteString(w, p.Reason)
}

func DecodeLoginDisconnect(r *protocol.Reader) (LoginDisconnect, error) {
	s, err := protocol.ReadString(r, protocol.DefaultMaxStringLength)
	return LoginDisconnect{Reason: s}, err
}

// LoginPluginResponse answers a server-initiated login plugin request;
// the core does not define any login plugin channels itself but must
// decode the envelope to stay framed correctly.
type LoginPluginResponse struct {
	MessageID  int32
	Successful bool
	Data       []byte
}

func DecodeLoginPluginResponse(r *protocol.Reader, bodyLen int) (LoginPluginResponse, error) {
	var p LoginPluginResponse
	id, err := protocol.ReadVarInt(r)
	if err != nil {
		return p, err
	}
	p.MessageID = id
	ok, err := protocol.ReadBool(r)
	if err != nil {
		return p, err
	}
	p.Successful = ok
	if ok {
		remaining := bodyLen - protocol.VarIntSize(id) - 1
		if remaining > 0 {
			p.Data = make([]byte, remaining)
			_, err = r.Read(p.Data)
		}
	}
	return p, err
}
