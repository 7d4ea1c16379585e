package qpu

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/qonduit-team/qonduit-engine/cloud"
	"github.com/qonduit-team/qonduit-engine/common"
	"github.com/qonduit-team/qonduit-engine/core"
)

var jsonIter = jsoniter.ConfigCompatibleWithStandardLibrary

const callTimeout = 60 * time.Second

// DeviceClient talks to one device endpoint. The default client speaks
// the HTTP protocol of the device gateway; tests swap in fakes.
type DeviceClient interface {
	Setup() error
	CallDeviceInfo() (*core.DeviceInfo, error)
	CallJob(core.Job) error
	Reset()
	Close()

	GetAddress() string
}

type DefaultDeviceClient struct {
	deviceSetting *DeviceSetting
	cloudEndpoint string
	cloudAPIKey   string
	address       string
	httpClient    *http.Client
	cloudClient   *cloud.Client
	ctx           context.Context

	lastDeviceInfo *core.DeviceInfo
}

func NewDeviceClient(ds *DeviceSetting, conf *core.Conf) *DefaultDeviceClient {
	return &DefaultDeviceClient{
		deviceSetting: ds,
		cloudEndpoint: conf.ServiceDBEndpoint,
		cloudAPIKey:   conf.ServiceDBAPIKey,
	}
}

func (d *DefaultDeviceClient) Setup() (err error) {
	address, err := common.ValidAddress(d.deviceSetting.MachineHost, d.deviceSetting.MachinePort)
	if err != nil {
		return err
	}
	d.address = address

	cc, err := cloud.NewClient(d.cloudEndpoint, d.cloudAPIKey)
	if err != nil {
		// device execution works without the reporting path
		zap.L().Info(fmt.Sprintf("device info reporting is off. Reason:%s", err))
	} else {
		d.cloudClient = cc
	}
	d.Reset()
	return nil
}

type deviceInfoResponse struct {
	DeviceID      string `json:"device_id"`
	ProviderID    string `json:"provider_id"`
	Type          string `json:"type"`
	Status        string `json:"status"`
	MaxQubits     int    `json:"max_qubits"`
	MaxShots      int    `json:"max_shots"`
	NativePackage string `json:"native_package"`
	CalibratedAt  string `json:"calibrated_at"`
}

func (d *DefaultDeviceClient) CallDeviceInfo() (*core.DeviceInfo, error) {
	body, err := d.get("/device")
	if err != nil {
		d.Reset()
		zap.L().Error(fmt.Sprintf("failed to get device info from %s/reason:%s", d.address, err))
		return &core.DeviceInfo{}, err
	}
	res := deviceInfoResponse{}
	if err := jsonIter.Unmarshal(body, &res); err != nil {
		zap.L().Error(fmt.Sprintf("failed to decode device info from %s/reason:%s", d.address, err))
		return &core.DeviceInfo{}, err
	}
	zap.L().Debug(fmt.Sprintf(
		"DeviceID:%s, ProviderID:%s, Type:%s, MaxQubits:%d, MaxShots:%d, NativePackage:%s, CalibratedAt:%s",
		res.DeviceID, res.ProviderID, res.Type, res.MaxQubits, res.MaxShots, res.NativePackage, res.CalibratedAt))

	cd := &core.DeviceInfo{
		DeviceName:    res.DeviceID,
		ProviderName:  res.ProviderID,
		Type:          res.Type,
		Status:        mapDeviceStatus(res.Status),
		MaxQubits:     res.MaxQubits,
		MaxShots:      res.MaxShots,
		NativePackage: res.NativePackage,
		CalibratedAt:  res.CalibratedAt,
	}
	d.callDeviceAPIOnChange(cd)
	return cd, nil
}

func mapDeviceStatus(s string) core.DeviceStatus {
	switch s {
	case "active":
		return core.Available
	case "inactive":
		return core.Unavailable
	case "maintenance":
		return core.QueuePaused
	default:
		zap.L().Error(fmt.Sprintf("unknown device status %q, treating as Unavailable", s))
		return core.Unavailable
	}
}

type callJobRequest struct {
	JobID   string `json:"job_id"`
	Shots   int    `json:"shots"`
	Program string `json:"program"`
	Package string `json:"package"`
}

type callJobResponse struct {
	Status  string      `json:"status"`
	Counts  core.Counts `json:"counts"`
	Message string      `json:"message"`
}

func (d *DefaultDeviceClient) CallJob(j core.Job) error {
	jd := j.JobData()
	program, pkg := programToBeSent(jd)

	zap.L().Debug(fmt.Sprintf("Sending a job to QPU/"+
		"JobID:%s, Shots:%d, Package:%s, Program:%s", jd.ID, jd.Shots, pkg, program))
	startTime := time.Now()
	body, err := d.post("/jobs", &callJobRequest{
		JobID:   jd.ID,
		Shots:   jd.Shots,
		Program: program,
		Package: pkg,
	})
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to call the job in %s/reason:%s", d.address, err))
		return err
	}
	endTime := time.Now()
	resp := callJobResponse{}
	if err := jsonIter.Unmarshal(body, &resp); err != nil {
		zap.L().Error(fmt.Sprintf("failed to decode the job response from %s/reason:%s", d.address, err))
		return err
	}
	// TODO: fix this SRP violation
	switch resp.Status {
	case "success":
		jd.Status = core.SUCCEEDED
	case "failure", "inactive":
		jd.Status = core.FAILED
	default:
		msg := fmt.Sprintf("unknown status %q", resp.Status)
		zap.L().Error(msg)
		return errors.New(msg)
	}
	zap.L().Debug(fmt.Sprintf("JobID:%s, Status:%s", jd.ID, jd.Status))

	r := jd.Result
	r.Counts = resp.Counts
	r.Message = resp.Message
	r.ExecutionTime = endTime.Sub(startTime)

	zap.L().Debug(fmt.Sprintf("JobID:%s, Counts:%v, Message:%s, ExecutionTime:%s",
		jd.ID, r.Counts, r.Message, r.ExecutionTime))
	return nil
}

func (d *DefaultDeviceClient) Reset() {
	d.Close()
	d.ctx = context.Background()
	d.httpClient = &http.Client{Timeout: callTimeout}
	d.lastDeviceInfo = nil
	zap.L().Debug(fmt.Sprintf("DeviceClient is ready to use %s", d.address))
}

func (d *DefaultDeviceClient) Close() {
	if d.httpClient != nil {
		d.httpClient.CloseIdleConnections()
	}
}

func (d *DefaultDeviceClient) GetAddress() string {
	return d.address
}

func (d *DefaultDeviceClient) get(path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(d.ctx, http.MethodGet, "http://"+d.address+path, nil)
	if err != nil {
		return nil, err
	}
	return d.do(req)
}

func (d *DefaultDeviceClient) post(path string, reqBody interface{}) ([]byte, error) {
	b, err := jsonIter.Marshal(reqBody)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(d.ctx, http.MethodPost, "http://"+d.address+path, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return d.do(req)
}

func (d *DefaultDeviceClient) do(req *http.Request) ([]byte, error) {
	res, err := d.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d from %s", res.StatusCode, req.URL)
	}
	return body, nil
}

// callDeviceAPIOnChange reports the polled device info to the cloud
// service, PATCHing only the parts that changed since the last poll.
func (d *DefaultDeviceClient) callDeviceAPIOnChange(newDI *core.DeviceInfo) {
	if d.cloudClient == nil {
		d.lastDeviceInfo = newDI
		return
	}
	updated := false
	if hasStatusChanged(d.lastDeviceInfo, newDI) {
		if err := d.updateDeviceStatus(newDI.Status); err != nil {
			zap.L().Error(fmt.Sprintf("failed to update device status/reason:%s", err))
		} else {
			updated = true
		}
	}
	if hasDeviceInfoChanged(d.lastDeviceInfo, newDI) {
		if err := d.updateDeviceInfo(newDI); err != nil {
			zap.L().Error(fmt.Sprintf("failed to update device info/reason:%s", err))
		} else {
			updated = true
		}
	}
	if hasDeviceChanged(d.lastDeviceInfo, newDI) {
		if err := d.updateDevice(newDI); err != nil {
			zap.L().Error(fmt.Sprintf("failed to update device/reason:%s", err))
		} else {
			updated = true
		}
	}
	if updated {
		d.lastDeviceInfo = newDI
	} else {
		zap.L().Debug("no updated device info")
	}
}

func (d *DefaultDeviceClient) updateDeviceStatus(st core.DeviceStatus) error {
	status := toCloudDeviceStatus(st)
	zap.L().Debug(fmt.Sprintf("updating device status/device:%s/status:%s",
		d.deviceSetting.DeviceName, status))
	return d.cloudClient.PatchDeviceStatus(context.TODO(), d.deviceSetting.DeviceName, status)
}

func (d *DefaultDeviceClient) updateDeviceInfo(di *core.DeviceInfo) error {
	ca, err := parseRFC3339Time(di.CalibratedAt)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to parse time %s/reason:%s", di.CalibratedAt, err))
		return err
	}
	spec, err := jsonIter.Marshal(di)
	if err != nil {
		return err
	}
	req := &cloud.UpdateDeviceInfoRequest{
		DeviceInfo:   string(spec),
		CalibratedAt: ca,
	}
	zap.L().Debug(fmt.Sprintf("updating device info/device:%s/calibratedAt:%s",
		d.deviceSetting.DeviceName, di.CalibratedAt))
	return d.cloudClient.PatchDeviceInfo(context.TODO(), d.deviceSetting.DeviceName, req)
}

func (d *DefaultDeviceClient) updateDevice(di *core.DeviceInfo) error {
	zap.L().Debug(fmt.Sprintf("updating device/device:%s/maxQubits:%d",
		d.deviceSetting.DeviceName, di.MaxQubits))
	return d.cloudClient.PatchDevice(context.TODO(), d.deviceSetting.DeviceName, di.MaxQubits)
}

func toCloudDeviceStatus(ds core.DeviceStatus) string {
	switch ds {
	case core.Available:
		return "available"
	case core.Unavailable, core.QueuePaused:
		return "unavailable"
	default:
		zap.L().Error(fmt.Sprintf("unknown device status %d", ds))
		return "unavailable"
	}
}

// parseRFC3339Time parses a time string in RFC 3339 format (which is a profile of ISO 8601).
func parseRFC3339Time(t string) (time.Time, error) {
	tt, err := time.Parse(time.RFC3339, t)
	if err != nil {
		zap.L().Error(fmt.Sprintf("failed to parse time %s using RFC3339/reason:%s", t, err))
		return time.Time{}, err
	}
	return tt, nil
}

func hasStatusChanged(oldDI, newDI *core.DeviceInfo) bool {
	if oldDI == nil {
		zap.L().Debug("old device info is nil")
		return true
	}
	if newDI == nil {
		zap.L().Error("new device info is nil")
		return true
	}
	if oldDI.Status != newDI.Status {
		zap.L().Debug("Status is changed")
		return true
	}
	return false
}

func hasDeviceInfoChanged(oldDI, newDI *core.DeviceInfo) bool {
	if oldDI == nil {
		zap.L().Debug("old device info is nil")
		return true
	}
	if newDI == nil {
		zap.L().Error("new device info is nil")
		return true
	}
	// status is handled by hasStatusChanged
	if oldDI.CalibratedAt != newDI.CalibratedAt {
		zap.L().Debug("CalibratedAt is changed")
		return true
	}
	if oldDI.MaxShots != newDI.MaxShots {
		zap.L().Debug("MaxShots is changed")
		return true
	}
	if oldDI.ProviderName != newDI.ProviderName {
		zap.L().Debug("ProviderName is changed")
		return true
	}
	if oldDI.DeviceName != newDI.DeviceName {
		zap.L().Debug("DeviceName is changed")
		return true
	}
	if oldDI.Type != newDI.Type {
		zap.L().Debug("Type is changed")
		return true
	}
	if oldDI.NativePackage != newDI.NativePackage {
		zap.L().Debug("NativePackage is changed")
		return true
	}
	return false
}

func hasDeviceChanged(oldDI, newDI *core.DeviceInfo) bool {
	// only MaxQubits for now
	if oldDI == nil {
		zap.L().Debug("old device info is nil")
		return true
	}
	if newDI == nil {
		zap.L().Error("new device info is nil")
		return true
	}
	if oldDI.MaxQubits != newDI.MaxQubits {
		zap.L().Debug("MaxQubits is changed")
		return true
	}
	return false
}
