package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	"speech-translation-service/internal/pipeline"
)

// Client calls TranslationService.
type Client struct {
	conn   grpc.ClientConnInterface
	userID string
}

// NewClient creates a client that identifies as userID.
func NewClient(conn grpc.ClientConnInterface, userID string) *Client {
	return &Client{conn: conn, userID: userID}
}

// Translate sends text, with an optional room, and decodes the response.
func (c *Client) Translate(ctx context.Context, text, roomID string) (*pipeline.Response, error) {
	fields := map[string]interface{}{"text": text}
	if roomID != "" {
		fields["roomId"] = roomID
	}
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}

	ctx = metadata.AppendToOutgoingContext(ctx, UserIDMetadataKey, c.userID)
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, TranslateMethod, in, out); err != nil {
		return nil, err
	}

	f := out.GetFields()
	return &pipeline.Response{
		Text:           f["text"].GetStringValue(),
		Cached:         f["cached"].GetBoolValue(),
		ProcessingTime: int64(f["processingTime"].GetNumberValue()),
		Filtered:       f["filtered"].GetBoolValue(),
	}, nil
}
