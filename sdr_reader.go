package ipmisdr

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Returns a new reservation id of the SDR repository.
func (c *Client) ReserveSDRRepository(ctx context.Context) (uint16, error) {
	rsc := &ReserveSDRRepositoryCommand{}
	if err := c.Execute(ctx, rsc); err != nil {
		return 0, errors.Wrap(err, "reserve SDR repository")
	}
	c.metrics.reservation()
	return rsc.ReservationID, nil
}

// Returns the SDR repository information.
func (c *Client) SDRRepositoryInfo(ctx context.Context) (*GetSDRRepositoryInfoCommand, error) {
	gic := &GetSDRRepositoryInfoCommand{}
	if err := c.Execute(ctx, gic); err != nil {
		return nil, errors.Wrap(err, "get SDR repository info")
	}
	return gic, nil
}

// Returns `true` if the device advertises an SDR repository.
func (c *Client) SDRRepositoryAvailable(ctx context.Context) (bool, error) {
	gdc := &GetDeviceIDCommand{}
	if err := c.Execute(ctx, gdc); err != nil {
		return false, errors.Wrap(err, "get device id")
	}
	return gdc.SupportDeviceSDRRepo, nil
}

// Returns the record `recordID`. A reservation is acquired when `reservation`
// is nil, otherwise it is used and updated in place when the BMC cancels it.
func (c *Client) GetSDR(ctx context.Context, recordID uint16, reservation *uint16) (SDR, error) {
	r, err := c.getSDR(ctx, recordID, reservation)
	if err != nil {
		c.metrics.failure(failureKind(err))
		return nil, err
	}
	c.metrics.recordRead()
	return r, nil
}

func (c *Client) getSDR(ctx context.Context, recordID uint16, reservation *uint16) (SDR, error) {
	if reservation == nil {
		id, err := c.ReserveSDRRepository(ctx)
		if err != nil {
			return nil, err
		}
		reservation = &id
	}

	header, nextID, err := c.readHeader(ctx, reservation, recordID)
	if err != nil {
		return nil, err
	}
	data, err := c.readBody(ctx, reservation, recordID, header)
	if err != nil {
		return nil, err
	}
	return DecodeSDR(data, nextID)
}

// Phase 1: reads the 5 byte header at offset 0.
func (c *Client) readHeader(ctx context.Context, reservation *uint16, recordID uint16) ([]byte, uint16, error) {
	var gsc *GetSDRCommand
	var last error

	for attempts := c.args.HeaderAttempts; attempts > 0; attempts-- {
		gsc = &GetSDRCommand{
			ReservationID: *reservation,
			RecordID:      recordID,
			RecordOffset:  0,
			ReadBytes:     sdrHeaderSize,
		}
		err := c.Execute(ctx, gsc)
		if err == nil && len(gsc.RecordData) < sdrHeaderSize {
			c.retryLog("short header", recordID, 0, attempts, 0)
			c.metrics.retry(retryEmptyResponse)
			last = &DecodingError{Message: fmt.Sprintf("Short SDR header : %d/%d", len(gsc.RecordData), sdrHeaderSize)}
			continue
		}
		if err == nil {
			return gsc.RecordData[:sdrHeaderSize], gsc.NextRecordID, nil
		}
		last = err

		code, ok := CompletionCodeOf(err)
		if !ok {
			return nil, 0, errors.Wrapf(err, "get SDR 0x%04x header", recordID)
		}
		switch code {
		case CompletionReservationCanceled:
			c.metrics.retry(retryReservationCanceled)
			if err := c.reserveAgain(ctx, reservation, recordID); err != nil {
				return nil, 0, err
			}
			if err := c.backoff(ctx, recordID, 0, attempts, code, c.args.ReservationBackoff); err != nil {
				return nil, 0, retryError(gsc, recordID, c.args.HeaderAttempts, err)
			}
		case CompletionCantBeProvided:
			c.metrics.retry(retryCantBeProvided)
			if err := c.backoff(ctx, recordID, 0, attempts, code, c.backoffDelay(attempts)); err != nil {
				return nil, 0, retryError(gsc, recordID, c.args.HeaderAttempts, err)
			}
		default:
			return nil, 0, errors.Wrapf(err, "get SDR 0x%04x header", recordID)
		}
	}

	return nil, 0, retryError(gsc, recordID, c.args.HeaderAttempts, last)
}

// Phase 2: reads the whole record, header included, in pages. The next record
// id of these responses is ignored in favor of the header's.
func (c *Client) readBody(ctx context.Context, reservation *uint16, recordID uint16, header []byte) ([]byte, error) {
	var h SDRHeader
	if _, err := h.Unmarshal(header); err != nil {
		return nil, err
	}
	length := h.RecordLength()

	data := make([]byte, 0, length)
	data = append(data, header...)
	page := int(c.args.ReadBytes)
	attempts := c.args.BodyAttempts

	var gsc *GetSDRCommand
	var last error

	for len(data) < length {
		if attempts <= 0 {
			return nil, retryError(gsc, recordID, c.args.BodyAttempts, last)
		}

		offset := len(data)
		if offset > 0xff {
			return nil, &DecodingError{
				Message: fmt.Sprintf("SDR 0x%04x offset exceeds a byte : %d/%d", recordID, offset, length),
			}
		}
		n := length - offset
		if n > page {
			n = page
		}

		gsc = &GetSDRCommand{
			ReservationID: *reservation,
			RecordID:      recordID,
			RecordOffset:  uint8(offset),
			ReadBytes:     uint8(n),
		}
		err := c.Execute(ctx, gsc)
		if err == nil {
			if len(gsc.RecordData) == 0 {
				c.retryLog("empty response", recordID, offset, attempts, 0)
				c.metrics.retry(retryEmptyResponse)
				last = &DecodingError{Message: fmt.Sprintf("Empty SDR 0x%04x response at offset %d", recordID, offset)}
				attempts--
				continue
			}
			data = append(data, gsc.RecordData...)
			continue
		}
		last = err

		code, ok := CompletionCodeOf(err)
		if !ok {
			return nil, errors.Wrapf(err, "get SDR 0x%04x at offset %d", recordID, offset)
		}
		switch code {
		case CompletionCantReturnDataBytes:
			c.metrics.retry(retryReadBytesShrink)
			page -= int(c.args.ReadBytesStep)
			c.log.Debug("shrink SDR read size",
				zap.Uint16("record_id", recordID),
				zap.Int("offset", offset),
				zap.Int("read_bytes", page),
			)
			if page <= 0 {
				return nil, retryError(gsc, recordID, c.args.BodyAttempts, err)
			}
		case CompletionReservationCanceled:
			c.metrics.retry(retryReservationCanceled)
			if err := c.reserveAgain(ctx, reservation, recordID); err != nil {
				return nil, err
			}
			// The record is read again from the start under the new reservation
			data = data[:0]
			if err := c.backoff(ctx, recordID, offset, attempts, code, c.backoffDelay(attempts)); err != nil {
				return nil, retryError(gsc, recordID, c.args.BodyAttempts, err)
			}
			attempts--
		case CompletionCantBeProvided:
			c.metrics.retry(retryCantBeProvided)
			if err := c.backoff(ctx, recordID, offset, attempts, code, c.backoffDelay(attempts)); err != nil {
				return nil, retryError(gsc, recordID, c.args.BodyAttempts, err)
			}
			attempts--
		default:
			return nil, errors.Wrapf(err, "get SDR 0x%04x at offset %d", recordID, offset)
		}
	}

	return data, nil
}

func (c *Client) reserveAgain(ctx context.Context, reservation *uint16, recordID uint16) error {
	id, err := c.ReserveSDRRepository(ctx)
	if err != nil {
		return err
	}
	c.log.Info("SDR reservation canceled, reserved again",
		zap.Uint16("record_id", recordID),
		zap.Uint16("old_reservation", *reservation),
		zap.Uint16("reservation", id),
	)
	*reservation = id
	return nil
}

// Delay shrinks as attempts are consumed.
func (c *Client) backoffDelay(remaining int) time.Duration {
	return c.args.BackoffUnit * time.Duration(remaining)
}

func (c *Client) backoff(ctx context.Context, recordID uint16, offset, remaining int, code CompletionCode, d time.Duration) error {
	c.log.Debug("retry get SDR",
		zap.Uint16("record_id", recordID),
		zap.Int("offset", offset),
		zap.Stringer("completion_code", code),
		zap.Int("remaining_attempts", remaining),
		zap.Duration("delay", d),
	)
	return c.sleep(ctx, d)
}

func (c *Client) retryLog(msg string, recordID uint16, offset, remaining int, d time.Duration) {
	c.log.Debug("retry get SDR: "+msg,
		zap.Uint16("record_id", recordID),
		zap.Int("offset", offset),
		zap.Int("remaining_attempts", remaining),
		zap.Duration("delay", d),
	)
}

func retryError(cmd *GetSDRCommand, recordID uint16, attempts int, cause error) error {
	if cmd == nil {
		cmd = &GetSDRCommand{RecordID: recordID}
	}
	return &RetryError{
		Command:  cmd,
		RecordID: recordID,
		Attempts: attempts,
		Cause:    cause,
	}
}

func failureKind(err error) string {
	var (
		re *RetryError
		de *DecodingError
		ue *UnsupportedRecordTypeError
		ce *CommandError
	)
	switch {
	case errors.As(err, &re):
		return failureExhausted
	case errors.As(err, &ue):
		return failureUnsupported
	case errors.As(err, &de):
		return failureDecoding
	case errors.As(err, &ce):
		return failureCompletion
	default:
		return failureTransport
	}
}

// Returns a one-shot sequence of the records in the SDR repository.
//
// An *UnsupportedRecordTypeError is yielded for records without a decoder and
// the sequence goes on with the following record. Any other error is yielded
// once and ends the sequence.
func (c *Client) SDRRecords(ctx context.Context) iter.Seq2[SDR, error] {
	return func(yield func(SDR, error) bool) {
		reservation, err := c.ReserveSDRRepository(ctx)
		if err != nil {
			yield(nil, err)
			return
		}

		seen := make(map[uint16]struct{})
		for recordID := sdrFirstID; recordID != sdrLastID; {
			if _, ok := seen[recordID]; ok {
				yield(nil, &DecodingError{Message: fmt.Sprintf("SDR chain loops back to 0x%04x", recordID)})
				return
			}
			seen[recordID] = struct{}{}

			record, err := c.GetSDR(ctx, recordID, &reservation)
			if err != nil {
				var ue *UnsupportedRecordTypeError
				if !errors.As(err, &ue) {
					yield(nil, err)
					return
				}
				if !yield(nil, err) {
					return
				}
				recordID = ue.NextRecordID
				continue
			}

			if !yield(record, nil) {
				return
			}
			recordID = record.NextID()
		}
	}
}

// Returns all records from SDR repository. It stops at the first error.
func (c *Client) SDRGetAllRecordsRepo(ctx context.Context) ([]SDR, error) {
	var records []SDR
	for r, err := range c.SDRRecords(ctx) {
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

// Returns records from SDR repository that `filter` accepts. The filter is
// given the id and type from each record header, and the body of rejected
// records is not transferred.
func (c *Client) SDRGetRecordsRepo(ctx context.Context, filter func(id uint16, t SDRType) bool) ([]SDR, error) {
	info, err := c.SDRRepositoryInfo(ctx)
	if err != nil {
		return nil, err
	}
	if v := info.SDRVersion; v != 0x01 && v != 0x51 && v != 0x02 {
		return nil, &DecodingError{Message: fmt.Sprintf("Unknown SDR repository version : %d", v)}
	}
	if info.RecordCount == 0 {
		return []SDR{}, nil
	}

	reservation, err := c.ReserveSDRRepository(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]SDR, 0, info.RecordCount)
	seen := make(map[uint16]struct{})
	for recordID := sdrFirstID; recordID != sdrLastID; {
		if _, ok := seen[recordID]; ok {
			return nil, &DecodingError{Message: fmt.Sprintf("SDR chain loops back to 0x%04x", recordID)}
		}
		seen[recordID] = struct{}{}

		header, nextID, err := c.readHeader(ctx, &reservation, recordID)
		if err != nil {
			c.metrics.failure(failureKind(err))
			return nil, err
		}

		var h SDRHeader
		if _, err := h.Unmarshal(header); err != nil {
			return nil, err
		}
		if filter != nil && !filter(h.RecordID, h.RecordType) {
			recordID = nextID
			continue
		}

		data, err := c.readBody(ctx, &reservation, recordID, header)
		if err == nil {
			var r SDR
			if r, err = DecodeSDR(data, nextID); err == nil {
				c.metrics.recordRead()
				records = append(records, r)
				recordID = nextID
				continue
			}
		}
		c.metrics.failure(failureKind(err))
		return nil, err
	}

	return records, nil
}
