// internal/services/progress_service_test.go
package services

import (
	"errors"
	"testing"
)

func TestTrackerLifecycle(t *testing.T) {
	svc := NewProgressService()

	tracker := svc.CreateTracker("task_1")
	if tracker.Status != "running" {
		t.Errorf("新任务状态应为 running，得到 %q", tracker.Status)
	}

	// 同一任务ID返回同一个跟踪器
	if again := svc.CreateTracker("task_1"); again != tracker {
		t.Error("重复创建应返回已有跟踪器")
	}

	tracker.UpdateProgress(50, "处理中")
	snapshot := tracker.Snapshot()
	if snapshot.Progress != 50 || snapshot.Message != "处理中" {
		t.Errorf("快照错误: %+v", snapshot)
	}

	// 进度不回退
	tracker.UpdateProgress(30, "")
	if tracker.Snapshot().Progress != 50 {
		t.Errorf("进度不应回退: %d", tracker.Snapshot().Progress)
	}

	tracker.Complete("完成")
	select {
	case <-tracker.Done:
	default:
		t.Fatal("完成后 Done 通道应已关闭")
	}
	snapshot = tracker.Snapshot()
	if snapshot.Status != "completed" || snapshot.Progress != 100 {
		t.Errorf("完成状态错误: %+v", snapshot)
	}

	// 终态不可再变
	tracker.Fail(errors.New("too late"))
	if tracker.Snapshot().Status != "completed" {
		t.Error("已完成的任务不应再转为失败")
	}

	svc.RemoveTracker("task_1")
	if _, exists := svc.GetTracker("task_1"); exists {
		t.Error("移除后不应再能获取跟踪器")
	}
}

func TestTrackerSubscribe(t *testing.T) {
	svc := NewProgressService()
	tracker := svc.CreateTracker("task_sub")

	ch := tracker.Subscribe()
	defer tracker.Unsubscribe(ch)

	// 订阅时立即收到当前状态
	first := <-ch
	if first.Status != "running" {
		t.Errorf("首条推送状态应为 running，得到 %q", first.Status)
	}

	tracker.UpdateProgress(40, "前进中")
	update := <-ch
	if update.Progress != 40 || update.Message != "前进中" {
		t.Errorf("推送内容错误: %+v", update)
	}

	tracker.Fail(errors.New("boom"))
	final := <-ch
	if final.Status != "failed" {
		t.Errorf("失败推送状态错误: %q", final.Status)
	}
}
